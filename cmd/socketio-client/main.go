// Command socketio-client connects to a Socket.IO server, registers on a
// namespace, emits a test event, and prints whatever the server replies with
// — illustrating the blocking Wait-based API in place of the teacher's
// On/handler registry. Reconnection on a dropped connection is the caller's
// responsibility (spec.md §1 Non-goal), done here with exponential backoff.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	socketio "github.com/sio-go/socketio-client"
)

func main() {
	url := flag.String("url", "http://localhost:3000", "Socket.IO server URL")
	nsp := flag.String("namespace", "/", "namespace to join after connecting")
	event := flag.String("wait", "update", "event name to wait for after connecting")
	flag.Parse()

	client, err := socketio.NewClient(*url,
		socketio.WithVersion(socketio.EIO4X),
		socketio.WithTimeout(20*time.Second),
	)
	if err != nil {
		log.Fatalf("socketio-client: %v", err)
	}

	if err := connectWithBackoff(client); err != nil {
		log.Fatalf("socketio-client: giving up: %v", err)
	}
	defer client.Close()

	if err := client.Of(*nsp); err != nil {
		log.Fatalf("socketio-client: join namespace %s: %v", *nsp, err)
	}

	if _, err := client.Emit("register", map[string]string{"key": os.Getenv("SOCKETIO_CLIENT_KEY")}); err != nil {
		log.Fatalf("socketio-client: register: %v", err)
	}

	for {
		pkt, err := client.Wait(*event)
		if err != nil {
			log.Printf("socketio-client: wait %s: %v, reconnecting", *event, err)
			_ = client.Close()
			client, err = socketio.NewClient(*url,
				socketio.WithVersion(socketio.EIO4X),
				socketio.WithTimeout(20*time.Second),
			)
			if err != nil {
				log.Fatalf("socketio-client: %v", err)
			}
			if err := connectWithBackoff(client); err != nil {
				log.Fatalf("socketio-client: giving up: %v", err)
			}
			if err := client.Of(*nsp); err != nil {
				log.Fatalf("socketio-client: join namespace %s: %v", *nsp, err)
			}
			continue
		}
		fmt.Println(pkt.Event, pkt.Args)
	}
}

// connectWithBackoff retries Client.Connect with exponential backoff,
// capped at 10 minutes total.
func connectWithBackoff(client *socketio.Client) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 10 * time.Minute
	return backoff.Retry(client.Connect, b)
}
