// Package mqttcore implements the core of an MQTT 3.1.1 client for
// constrained, single-session IoT devices.
//
// A Client maintains one logical connection to one broker. It is not a
// background task: there is no internal goroutine driving I/O. The owner
// calls [Client.Yield] periodically (from one "service" goroutine) to read
// at most one inbound packet, dispatch it, sweep the in-flight ack tables
// for timeouts, and run the keep-alive/reconnect engine. Other goroutines
// may concurrently call [Client.Publish], [Client.Subscribe],
// [Client.Unsubscribe], [Client.State], or [Client.Close].
//
// The byte transport ([Transport]) and the credential source
// ([Authenticator]) are injected collaborators; a concrete transport lives
// in the transport package. The wire codec is the internal/codec package,
// which the Client calls directly.
//
// Example:
//
//	tr, err := transport.Dial("tcp://broker.example:1883")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, err := mqttcore.New(mqttcore.Config{
//	    ClientID:  "sensor-17",
//	    Transport: tr,
//	}, mqttcore.WithKeepAlive(60*time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	c.Subscribe("/sensors/+/temp", mqttcore.QoS0, func(msg mqttcore.Message, ctx any) {
//	    fmt.Println(msg.Topic, string(msg.Payload))
//	}, nil)
//
//	for {
//	    c.Yield(time.Second)
//	}
package mqttcore
