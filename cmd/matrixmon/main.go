package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/robotalks/keymatrix/pkg/bridge"
	"github.com/robotalks/keymatrix/pkg/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/keymatrix/"
	device  = "+"
)

func init() {
	if val := os.Getenv("KEYMATRIX_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&device, "id", device, "Device ID to monitor, + for all.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := bridge.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q.Sub(bridge.DeviceTopic(device, bridge.TopicMeta), bridge.Handler(func(topic string, payload []byte) {
		if len(payload) == 0 {
			log.Printf("%s: offline", topic)
			return
		}
		meta, err := msgs.DecodeMeta(payload)
		if err != nil {
			log.Printf("%s: bad meta: %v", topic, err)
			return
		}
		log.Printf("%s: %s (%s) link=%s keys=%d adc=%d leds=%d", topic,
			meta.Device, meta.Description, meta.Link, meta.Keys, meta.ADC, meta.LEDs)
	}))
	q.Sub(bridge.DeviceTopic(device, bridge.TopicTelemetry), bridge.Handler(func(topic string, payload []byte) {
		msg, err := msgs.DecodeTelemetry(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		state := "valid"
		if !msg.Valid {
			state = "invalid"
		}
		log.Printf("%s: #%d %s seq=%d age=%v %s", topic, msg.Index, state, msg.Seq,
			time.Since(msg.Time()).Round(time.Millisecond), msg.String())
	}))

	// subscriptions are restored once connected.
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
