// Package main is a demo client: it subscribes to the event stream, uploads a
// solution document, exports it and prints every event received.
//
//	go run ./scripts/ws_client.go solution.json
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: ws_client SOLUTION.json")
	}
	doc, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/events/ws"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), http.Header{"X-Role": {"admin"}})
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = c.Close() }()
	must(c.WriteJSON(wsMessage{Type: "connection_init"}))
	must(c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: json.RawMessage(`{}`)}))

	go func() {
		var created struct {
			ID string `json:"id"`
		}
		time.Sleep(200 * time.Millisecond)
		post(base+"/v1/solutions?name=demo", doc, &created)
		log.Printf("created solution %s", created.ID)
		post(base+"/v1/solutions/"+created.ID+"/export", []byte(`{"path":"demo/`+created.ID+`.json","atomic":true}`), nil)
	}()

	_ = c.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		var msg wsMessage
		if err := c.ReadJSON(&msg); err != nil {
			log.Printf("read: %v", err)
			return
		}
		fmt.Printf("%s %s %s\n", msg.Type, msg.ID, string(msg.Payload))
	}
}

func post(u string, body []byte, out any) {
	req, _ := http.NewRequest(http.MethodPost, u, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Role", "admin")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 300 {
		log.Fatalf("POST %s: %s", u, resp.Status)
	}
	if out != nil {
		must(json.NewDecoder(resp.Body).Decode(out))
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
