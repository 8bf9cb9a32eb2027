// Package storage persists the bot's records as JSON documents in an
// embedded BadgerDB. Keys are namespaced by prefix, e.g. "fridge:<user>",
// "recipe:<id>", "cooking:<user>", "stats:<user>".
package storage
