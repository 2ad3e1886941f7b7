// Package messaging provides a broker-agnostic API for publishing and
// consuming messages.
//
// Use-case code depends on the Messaging interface only. The concrete broker
// (NSQ, NATS, Kafka, Google Pub/Sub or the in-process memory driver) is picked
// at startup through NewFromDriver.
package messaging
