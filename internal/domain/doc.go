// Package domain contains the core tracking entities: carts, the in-flight
// item record accepted from clients, and the item row that is persisted.
// It has no knowledge of HTTP, queues or databases.
package domain
