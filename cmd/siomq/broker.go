package main

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// BrokerConf says how to connect to the MQTT broker.
//
// The flags follow mosquitto_sub's.
type BrokerConf struct {
	Broker    string
	ClientId  string
	Port      int
	KeepAlive int
	Username  string
	Password  string
	Reconnect bool
	Clean     bool

	WillTopic   string
	WillPayload string
	WillQoS     int
	WillRetain  bool

	CertFile string
	KeyFile  string
	CAFile   string
	Insecure bool
}

func (b *BrokerConf) Flags(fs *flag.FlagSet) {
	fs.StringVar(&b.Broker, "h", "tcp://localhost", "Broker hostname")
	fs.StringVar(&b.ClientId, "i", "", "Client id")
	fs.IntVar(&b.Port, "p", 1883, "Broker port")
	fs.IntVar(&b.KeepAlive, "k", 10, "Keep-alive in seconds")
	fs.StringVar(&b.Username, "u", "", "Username")
	fs.StringVar(&b.Password, "P", "", "Password")
	fs.BoolVar(&b.Reconnect, "reconnect", false, "Automatically attempt to reconnect")
	fs.BoolVar(&b.Clean, "c", true, "Clean session")

	fs.StringVar(&b.WillTopic, "will-topic", "", "Optional will topic")
	fs.StringVar(&b.WillPayload, "will-payload", "", "Optional will message")
	fs.IntVar(&b.WillQoS, "will-qos", 0, "Optional will QoS")
	fs.BoolVar(&b.WillRetain, "will-retain", false, "Optional will retention")

	fs.StringVar(&b.CertFile, "cert", "", "Optional cert filename")
	fs.StringVar(&b.KeyFile, "key", "", "Optional key filename")
	fs.StringVar(&b.CAFile, "cafile", "", "Optional CA cert filename")
	fs.BoolVar(&b.Insecure, "insecure", false, "Skip broker cert checking")
}

// ClientOptions makes Paho options (without handlers).
func (b *BrokerConf) ClientOptions() (*mqtt.ClientOptions, error) {
	opts := mqtt.NewClientOptions()

	broker := b.Broker
	if b.Port != 0 {
		broker = fmt.Sprintf("%s:%d", broker, b.Port)
	}
	log.Printf("broker: %s", broker)
	opts.AddBroker(broker)
	opts.SetClientID(b.ClientId)
	opts.SetKeepAlive(time.Second * time.Duration(b.KeepAlive))
	opts.SetPingTimeout(10 * time.Second)

	opts.Username = b.Username
	opts.Password = b.Password
	opts.AutoReconnect = b.Reconnect
	opts.CleanSession = b.Clean

	if b.WillTopic != "" {
		if b.WillPayload == "" {
			return nil, errors.New("will topic without payload")
		}
		if b.WillQoS < 0 || 2 < b.WillQoS {
			return nil, fmt.Errorf("bad will QoS %d", b.WillQoS)
		}
		opts.SetBinaryWill(b.WillTopic, []byte(b.WillPayload), byte(b.WillQoS), b.WillRetain)
	}

	rootCAs, _ := x509.SystemCertPool()
	if rootCAs == nil {
		log.Printf("No system CA certs")
		rootCAs = x509.NewCertPool()
	}
	if b.CAFile != "" {
		certs, err := os.ReadFile(b.CAFile)
		if err != nil {
			return nil, fmt.Errorf("couldn't read '%s': %w", b.CAFile, err)
		}
		if ok := rootCAs.AppendCertsFromPEM(certs); !ok {
			log.Println("No certs appended, using system certs only")
		}
	}

	var certs []tls.Certificate
	if b.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(b.CertFile, b.KeyFile)
		if err != nil {
			return nil, err
		}
		certs = []tls.Certificate{cert}
	}

	opts.SetTLSConfig(&tls.Config{
		InsecureSkipVerify: b.Insecure,
		RootCAs:            rootCAs,
		Certificates:       certs,
	})

	return opts, nil
}
