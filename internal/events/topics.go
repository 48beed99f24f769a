package events

import "fmt"

// DefaultTopicPrefix is the root of every topic the bridge publishes.
const DefaultTopicPrefix = "robobar"

// Topics builds the bridge's topic names under a prefix.
//
//	Topics{}.Status()          // robobar/bridge/status
//	Topics{Prefix: "bar2"}.Orders() // bar2/orders/events
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// Status is the retained bridge status topic. It also carries the last will.
func (t Topics) Status() string {
	return fmt.Sprintf("%s/bridge/status", t.prefix())
}

// Orders is the order outcome event topic.
func (t Topics) Orders() string {
	return fmt.Sprintf("%s/orders/events", t.prefix())
}
