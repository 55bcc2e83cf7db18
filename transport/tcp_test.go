package transport

import (
	"net"
	"testing"
	"time"
)

func TestParseAddrDefaultsPort(t *testing.T) {
	_, host, tlsEnabled, err := parseAddr("tcp://broker.example", false)
	if err != nil {
		t.Fatal(err)
	}
	if host != "broker.example:1883" || tlsEnabled {
		t.Fatalf("got host=%q tls=%v", host, tlsEnabled)
	}

	_, host, tlsEnabled, err = parseAddr("tls://broker.example", false)
	if err != nil {
		t.Fatal(err)
	}
	if host != "broker.example:8883" || !tlsEnabled {
		t.Fatalf("got host=%q tls=%v", host, tlsEnabled)
	}
}

func TestParseAddrRejectsUnknownScheme(t *testing.T) {
	if _, _, _, err := parseAddr("ftp://broker.example:21", false); err == nil {
		t.Fatal("want error for unsupported scheme")
	}
}

func TestTCPRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 5)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		conn.Write(buf)
	}()

	tr, err := Dial("tcp://" + ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Connect(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	defer tr.Disconnect()

	if _, err := tr.Write([]byte("hello"), time.Now().Add(2*time.Second)); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 5)
	n, err := tr.Read(buf, time.Now().Add(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("got %q", buf[:n])
	}
	<-done
}

func TestTCPReadTimeoutReturnsZeroNil(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(500 * time.Millisecond)
	}()

	tr, err := Dial("tcp://" + ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Connect(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	defer tr.Disconnect()

	buf := make([]byte, 16)
	n, err := tr.Read(buf, time.Now().Add(50*time.Millisecond))
	if err != nil {
		t.Fatalf("want nil error on timeout, got %v", err)
	}
	if n != 0 {
		t.Fatalf("want 0 bytes on timeout, got %d", n)
	}
}
