// Package models holds the records shared by every layer of the bot: the
// inventory, the recipe corpus, cooking confirmations and history.
// Records are plain values; services pass them in and get new ones back.
package models
