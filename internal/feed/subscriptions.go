package feed

import "github.com/fredo994/coinbase-feed/internal/protocol"

// subscriptionSet is the cumulative desired subscription state. Insertion
// order is preserved so envelopes are deterministic.
type subscriptionSet struct {
	products   []string
	productIdx map[string]struct{}
	channels   []protocol.ChannelSpec
	channelIdx map[string]struct{}
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{
		productIdx: make(map[string]struct{}),
		channelIdx: make(map[string]struct{}),
	}
}

// add merges products and channels into the set.
func (s *subscriptionSet) add(productIDs []string, channels []protocol.ChannelSpec) {
	for _, id := range productIDs {
		if _, ok := s.productIdx[id]; ok {
			continue
		}
		s.productIdx[id] = struct{}{}
		s.products = append(s.products, id)
	}
	for _, ch := range channels {
		key := ch.Key()
		if _, ok := s.channelIdx[key]; ok {
			continue
		}
		s.channelIdx[key] = struct{}{}
		s.channels = append(s.channels, ch)
	}
}

// remove drops the named products and channels. Entries not in the set are
// ignored.
func (s *subscriptionSet) remove(productIDs []string, channels []protocol.ChannelSpec) {
	drop := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		if _, ok := s.productIdx[id]; ok {
			delete(s.productIdx, id)
			drop[id] = struct{}{}
		}
	}
	if len(drop) > 0 {
		kept := s.products[:0]
		for _, id := range s.products {
			if _, ok := drop[id]; !ok {
				kept = append(kept, id)
			}
		}
		s.products = kept
	}

	dropCh := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		key := ch.Key()
		if _, ok := s.channelIdx[key]; ok {
			delete(s.channelIdx, key)
			dropCh[key] = struct{}{}
		}
	}
	if len(dropCh) > 0 {
		kept := s.channels[:0]
		for _, ch := range s.channels {
			if _, ok := dropCh[ch.Key()]; !ok {
				kept = append(kept, ch)
			}
		}
		s.channels = kept
	}
}

// subscribeRequest returns an envelope carrying the entire set.
func (s *subscriptionSet) subscribeRequest() protocol.SubscribeRequest {
	products := make([]string, len(s.products))
	copy(products, s.products)
	channels := make([]protocol.ChannelSpec, len(s.channels))
	copy(channels, s.channels)
	return protocol.NewSubscribeRequest(products, channels)
}

func (s *subscriptionSet) len() (products, channels int) {
	return len(s.products), len(s.channels)
}

// unsubscribeRequest builds the delta envelope for an unsubscribe command,
// with duplicates removed.
func unsubscribeRequest(productIDs []string, channels []protocol.ChannelSpec) protocol.UnsubscribeRequest {
	delta := newSubscriptionSet()
	delta.add(productIDs, channels)

	var products []string
	if len(delta.products) > 0 {
		products = delta.products
	}
	return protocol.NewUnsubscribeRequest(products, delta.channels)
}
