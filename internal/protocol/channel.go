package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ChannelName identifies a feed topic.
type ChannelName string

const (
	ChannelHeartbeat ChannelName = "heartbeat"
	ChannelStatus    ChannelName = "status"
	ChannelTicker    ChannelName = "ticker"
	ChannelLevel2    ChannelName = "level2"
	ChannelMatches   ChannelName = "matches"
	ChannelUser      ChannelName = "user"
	ChannelFull      ChannelName = "full"
)

// Errors
var (
	ErrUnknownChannel = errors.New("unknown channel name")
	ErrMissingName    = errors.New("channel object missing name")
)

// ParseChannelName converts a case-insensitive name to a ChannelName.
func ParseChannelName(s string) (ChannelName, error) {
	switch name := ChannelName(strings.ToLower(s)); name {
	case ChannelHeartbeat, ChannelStatus, ChannelTicker, ChannelLevel2,
		ChannelMatches, ChannelUser, ChannelFull:
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}

// ChannelSpec describes a channel subscription, optionally restricted to
// specific products.
//
// A nil ProductIDs means "no restriction" and is encoded as the bare channel
// name. A non-nil ProductIDs, even an empty one, is encoded as an object.
type ChannelSpec struct {
	Name       ChannelName
	ProductIDs []string
}

// Channel returns an unrestricted ChannelSpec.
func Channel(name ChannelName) ChannelSpec {
	return ChannelSpec{Name: name}
}

// ChannelFor returns a ChannelSpec restricted to the given products.
func ChannelFor(name ChannelName, productIDs ...string) ChannelSpec {
	ids := make([]string, len(productIDs))
	copy(ids, productIDs)
	return ChannelSpec{Name: name, ProductIDs: ids}
}

// Channels returns unrestricted specs for each name.
func Channels(names ...ChannelName) []ChannelSpec {
	specs := make([]ChannelSpec, 0, len(names))
	for _, n := range names {
		specs = append(specs, Channel(n))
	}
	return specs
}

// Restricted reports whether the spec carries a product restriction.
func (c ChannelSpec) Restricted() bool {
	return c.ProductIDs != nil
}

// Key returns a value usable as a map key. Two specs with the same key are
// equal by value. Product ids are JSON-quoted so ids containing separators
// cannot collide.
func (c ChannelSpec) Key() string {
	if c.ProductIDs == nil {
		return string(c.Name)
	}
	ids, _ := json.Marshal(c.ProductIDs)
	return string(c.Name) + string(ids)
}

// Equal compares two specs by value.
func (c ChannelSpec) Equal(o ChannelSpec) bool {
	return c.Key() == o.Key()
}

func (c ChannelSpec) String() string {
	if c.ProductIDs == nil {
		return string(c.Name)
	}
	return string(c.Name) + "[" + strings.Join(c.ProductIDs, ",") + "]"
}

// channelObject is the object form of a ChannelSpec.
type channelObject struct {
	Name       ChannelName `json:"name"`
	ProductIDs []string    `json:"product_ids"`
}

// MarshalJSON encodes the spec as a bare string or as {name, product_ids}.
func (c ChannelSpec) MarshalJSON() ([]byte, error) {
	if c.ProductIDs == nil {
		return json.Marshal(string(c.Name))
	}
	return json.Marshal(channelObject{Name: c.Name, ProductIDs: c.ProductIDs})
}

// UnmarshalJSON accepts both the bare string and the object form.
func (c *ChannelSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("decode channel: empty input")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode channel name: %w", err)
		}
		name, err := ParseChannelName(s)
		if err != nil {
			return err
		}
		*c = ChannelSpec{Name: name}
		return nil

	case '{':
		var wire struct {
			Name       *string   `json:"name"`
			ProductIDs *[]string `json:"product_ids"`
		}
		if err := json.Unmarshal(data, &wire); err != nil {
			return fmt.Errorf("decode channel object: %w", err)
		}
		if wire.Name == nil {
			return ErrMissingName
		}
		name, err := ParseChannelName(*wire.Name)
		if err != nil {
			return err
		}
		spec := ChannelSpec{Name: name}
		// "product_ids": null decodes as unrestricted.
		if wire.ProductIDs != nil {
			spec.ProductIDs = *wire.ProductIDs
		}
		*c = spec
		return nil
	}

	return fmt.Errorf("decode channel: expected string or object, got %q", data[0])
}
