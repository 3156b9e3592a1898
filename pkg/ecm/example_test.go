package ecm_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gftdcojp/echo-memory/pkg/ecm"
	"github.com/nats-io/nats.go"
)

func Example() {
	nc, err := nats.Connect("nats://localhost:4222")
	if err != nil {
		log.Fatal(err)
	}
	defer nc.Close()

	client, err := ecm.New(ecm.Config{NC: nc})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// Record a significant moment
	echo, err := client.Add(ctx, ecm.AddParams{
		Content: "the migration finished without downtime",
		Author:  "alice",
		Type:    "wisdom",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("id=%s layer=%s score=%.1f\n", echo.ID, echo.Layer, echo.Score())
}

func ExampleClient_Retrieve() {
	nc, _ := nats.Connect("nats://localhost:4222")
	client, _ := ecm.New(ecm.Config{NC: nc})
	ctx := context.Background()

	// Retrieve strengthens the echo: resonance goes up and weight compounds
	echo, err := client.Retrieve(ctx, "01J8ZQ4X5YV0000000000000C0")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("resonance=%d weight=%.2f\n", echo.Resonance, echo.Weight)
}

func ExampleClient_Search() {
	nc, _ := nats.Connect("nats://localhost:4222")
	client, _ := ecm.New(ecm.Config{NC: nc})
	ctx := context.Background()

	// Results come back ranked by significance, newest first on ties
	echoes, err := client.Search(ctx, ecm.SearchParams{
		Text:  "deploy",
		Layer: "immediate",
		Limit: 10,
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, e := range echoes {
		fmt.Printf("%s %s\n", e.ID, e.Content)
	}
}

func ExampleClient_Crystallize() {
	nc, _ := nats.Connect("nats://localhost:4222")
	client, _ := ecm.New(ecm.Config{NC: nc})
	ctx := context.Background()

	// Top five wisdom-bearing echoes across every layer
	echoes, err := client.Crystallize(ctx, 5, true)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("crystallized:", len(echoes))
}

func ExampleNew() {
	nc, _ := nats.Connect("nats://localhost:4222")

	// Default configuration (prefix: "ecm", timeout: 5s)
	client, _ := ecm.New(ecm.Config{NC: nc})
	_ = client

	// Custom configuration
	client, _ = ecm.New(ecm.Config{
		NC:            nc,
		SubjectPrefix: "myapp.memory",
		Timeout:       10 * time.Second,
	})
	_ = client
}
