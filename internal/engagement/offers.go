package engagement

// OfferType distinguishes the entries of the upgrade panel.
type OfferType string

const (
	OfferInteraction OfferType = "interaction_unlock"
	OfferBotUnlock   OfferType = "bot_unlock"
	OfferBotToggle   OfferType = "bot_toggle"
	OfferBlock       OfferType = "block"
)

// Offer is one purchasable or toggleable upgrade as shown to the player.
type Offer struct {
	Type       OfferType
	Kind       Kind
	Cost       float64
	Affordable bool
	// Active is the current state of a bot for toggle offers.
	Active bool
}

// Offers lists the upgrades currently on display: the next interaction in
// the chain, then for every bot whose interaction is available either its
// unlock or its toggle, then the block action once SponsorBot is owned.
func (s *State) Offers(blockCost float64) []Offer {
	var offers []Offer
	for _, k := range Kinds[1:] {
		if s.Unlocked[k] {
			continue
		}
		if pre, _ := k.Prerequisite(); !s.IsUnlocked(pre) {
			break
		}
		cost := s.UnlockCosts[k]
		offers = append(offers, Offer{Type: OfferInteraction, Kind: k, Cost: cost, Affordable: s.CanAfford(cost)})
		break
	}
	for _, k := range Kinds {
		if !s.IsUnlocked(k) {
			continue
		}
		b := s.Bots[k]
		if b.Unlocked {
			offers = append(offers, Offer{Type: OfferBotToggle, Kind: k, Active: b.Active, Affordable: true})
			continue
		}
		offers = append(offers, Offer{Type: OfferBotUnlock, Kind: k, Cost: b.Cost, Affordable: s.CanAfford(b.Cost)})
	}
	if s.Bots[Sponsor].Unlocked {
		offers = append(offers, Offer{Type: OfferBlock, Kind: Sponsor, Cost: blockCost, Affordable: s.CanAfford(blockCost)})
	}
	return offers
}
