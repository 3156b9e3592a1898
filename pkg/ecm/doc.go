// Package ecm is the client for the echo-memory daemon's NATS
// request-reply API.
//
// The client speaks plain JSON over core NATS subjects and needs no
// JetStream. Typical use:
//
//	nc, _ := nats.Connect(nats.DefaultURL)
//	client, _ := ecm.New(ecm.Config{NC: nc})
//
//	echo, err := client.Add(ctx, ecm.AddParams{
//		Content: "deploy pipeline finally green",
//		Author:  "alice",
//		Type:    "wisdom",
//	})
//
// Retrieve is a meaningful recall and strengthens the echo on the server;
// Get is a passive read and does not.
package ecm
