package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"

	"github.com/alepar/tfasensor/tfa"
	"github.com/alepar/tfasensor/tfa/mqttpub"
	"github.com/alepar/tfasensor/tfa/receiver"
)

const program = "tfa_exporter"

// CLI args
var (
	listenAddr    = flag.String("listen-address", ":8080", "The address to listen on for HTTP requests.")
	input         = flag.String("input", "-", "receiver output to read telegrams from: serial device, fifo, file or - for stdin")
	retries       = flag.Int("retries", 5, "max number of tries to (re)open the input")
	retryInterval = flag.Duration("retry-interval", 5*time.Second, "pause between input retries")
	requireRepeat = flag.Bool("require-repeat", true, "only accept telegrams received twice in a row")
	protocols     = flag.String("protocols", "", "comma separated receiver protocol numbers to decode, empty for all")
	mqttBroker    = flag.String("mqtt-broker", "", "publish readings to this broker, e.g. tcp://localhost:1883")
	mqttTopic     = flag.String("mqtt-topic", "tfa", "topic prefix for published readings")
	mqttClientID  = flag.String("mqtt-client-id", "", "mqtt client id, defaults to tfasensor-<hostname>")
	logLevel      = flag.String("log-level", "info", "debug, info, warn or error")
	showVersion   = flag.Bool("version", false, "print version and exit")
)

// metrics to expose to Prometheus
var (
	gaugeTemperature = newGauge("tfa_temperature", "Air Temperature (units: degrees Celsius)")
	gaugeHumidity    = newGauge("tfa_humidity", "Humidity (units: % of relative Humidity)")
	gaugeBatteryOK   = newGauge("tfa_battery_ok", "1 if the sensor reports a good battery, 0 if low")

	counterTelegrams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tfa_telegrams_total",
			Help: "Telegrams handed over by the receiver, by outcome",
		},
		[]string{"result"},
	)
)

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		[]string{"address", "channel"},
	)
}

func init() {
	prometheus.MustRegister(gaugeTemperature)
	prometheus.MustRegister(gaugeHumidity)
	prometheus.MustRegister(gaugeBatteryOK)
	prometheus.MustRegister(counterTelegrams)

	prometheus.MustRegister(version.NewCollector(program))

	//logging
	formatter := &log.TextFormatter{
		FullTimestamp: true,
	}
	log.SetFormatter(formatter)
}

type publisher interface {
	Publish(values tfa.SensorValues) error
}

// station turns receiver frames into readings.
type station struct {
	history       tfa.History
	requireRepeat bool
	protocols     map[uint8]bool // nil accepts all
	pub           publisher
}

func (s *station) handle(frame receiver.Frame) {
	if s.protocols != nil && !s.protocols[frame.Protocol] {
		log.Debugf("ignoring protocol %d frame 0x%X", frame.Protocol, frame.Code)
		counterTelegrams.WithLabelValues("ignored").Inc()
		return
	}

	t := tfa.NewTelegram(&s.history, frame.Protocol, frame.Code, frame.Bits)
	log.Debugf("Telegram: %s", t)

	if err := tfa.Check(t, s.requireRepeat); err != nil {
		switch errors.Cause(err) {
		case tfa.ErrChecksumMismatch:
			log.Warnf("dropping telegram 0x%X: %s", t.Code(), err)
			counterTelegrams.WithLabelValues("bad_checksum").Inc()
		case tfa.ErrNotRepeated:
			log.Debugf("waiting for repetition: %s", err)
			counterTelegrams.WithLabelValues("not_repeated").Inc()
		}
		return
	}
	counterTelegrams.WithLabelValues("accepted").Inc()

	values := t.Values()
	log.Printf("Received: addr 0x%02X ch %d %.1f°C %.0f%% battery ok %t",
		values.Address, values.Channel, values.Temperature, values.Humidity, values.BatteryOK)

	address := fmt.Sprintf("%02x", values.Address)
	channel := strconv.Itoa(int(values.Channel))
	gaugeTemperature.WithLabelValues(address, channel).Set(float64(values.Temperature))
	gaugeHumidity.WithLabelValues(address, channel).Set(float64(values.Humidity))
	gaugeBatteryOK.WithLabelValues(address, channel).Set(boolToFloat(values.BatteryOK))

	if s.pub != nil {
		if err := s.pub.Publish(values); err != nil {
			log.Errorf("failed to publish reading: %s", err)
		}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func parseProtocols(s string) (map[uint8]bool, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	m := map[uint8]bool{}
	for _, p := range strings.Split(s, ",") {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "bad protocol %q", p)
		}
		m[uint8(n)] = true
	}
	return m, nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Print(program))
		return
	}

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("invalid log level: %s", err)
	}
	log.SetLevel(level)

	protos, err := parseProtocols(*protocols)
	if err != nil {
		log.Fatalf("invalid -protocols: %s", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Infof("shutting down")
		stop()
	}()

	st := &station{requireRepeat: *requireRepeat, protocols: protos}

	if *mqttBroker != "" {
		pub, err := mqttpub.New(mqttpub.Config{
			Broker:   *mqttBroker,
			ClientID: *mqttClientID,
			Topic:    *mqttTopic,
		})
		if err != nil {
			log.Fatalf("failed to set up mqtt: %s", err)
		}
		if err := pub.Connect(ctx); err != nil {
			log.Fatalf("failed to connect to mqtt: %s", err)
		}
		defer pub.Close()
		st.pub = pub
	}

	go func() {
		// Expose the registered metrics via HTTP.
		http.Handle("/metrics", promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{
				// Opt into OpenMetrics to support exemplars.
				EnableOpenMetrics: true,
			},
		))
		log.Panic(http.ListenAndServe(*listenAddr, nil))
	}()

	log.Infof("%s %s listening on %s, reading %s", program, version.Version, *listenAddr, *input)

	src := &receiver.Source{
		Path:          *input,
		Retries:       *retries,
		RetryInterval: *retryInterval,
	}
	if err := src.Run(ctx, st.handle); err != nil && errors.Cause(err) != context.Canceled {
		log.Errorf("failed to receive telegrams: %s", err)
		os.Exit(1)
	}
}
