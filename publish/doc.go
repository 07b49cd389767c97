// Package publish sends bus progress events to a RabbitMQ topic exchange.
//
// Every state the poller accepts is published as JSON under the routing key
// bus.progress.<bus number>, so consumers can bind to a single bus or to
// bus.progress.# for all of them.
package publish
