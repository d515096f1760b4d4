package pcmcia

import "hash/crc32"

// CardIdentity is the identity the bus runtime reads from a freshly
// inserted card: manufacturer/card numeric IDs plus up to two product
// strings from the CIS.
type CardIdentity struct {
	Manufacturer uint16
	Card         uint16
	Product1     string
	Product2     string
}

// DeviceID is one row of a driver's static match table. A row matches
// either by (Manufacturer, Card) pair or by product string hashes,
// depending on how it was constructed.
type DeviceID struct {
	Manufacturer uint16
	Card         uint16

	// Product string hashes (CRC-32 IEEE over the string bytes). The
	// bus runtime matches on hashes so tables stay compact; HashProduct
	// produces comparable values from reported strings.
	Hash1 uint32
	Hash2 uint32

	hasManfCard bool
	hasProds    bool
}

// ManufacturerCard builds a match table row keyed on the numeric
// manufacturer and card IDs.
func ManufacturerCard(manf, card uint16) DeviceID {
	return DeviceID{Manufacturer: manf, Card: card, hasManfCard: true}
}

// ProductStrings builds a match table row keyed on the two CIS product
// strings.
func ProductStrings(p1, p2 string) DeviceID {
	return DeviceID{
		Hash1:    HashProduct(p1),
		Hash2:    HashProduct(p2),
		hasProds: true,
	}
}

// HashProduct hashes a CIS product string the way the match tables store
// them.
func HashProduct(s string) uint32 {
	return crc32.ChecksumIEEE([]byte(s))
}

// Matches reports whether the row matches the reported identity.
func (id DeviceID) Matches(info CardIdentity) bool {
	if id.hasManfCard {
		return id.Manufacturer == info.Manufacturer && id.Card == info.Card
	}
	if id.hasProds {
		return id.Hash1 == HashProduct(info.Product1) &&
			id.Hash2 == HashProduct(info.Product2)
	}
	return false
}

// SupportedIDs is the identity table for cards sharing the RAM-loadable
// Symbol firmware: Symbol Spectrum24 Trilogy cards, Socket Communications
// CF cards and the Intel PRO/Wireless 2011B.
var SupportedIDs = []DeviceID{
	ManufacturerCard(0x026c, 0x0001), // Symbol Spectrum24 LA4137
	ManufacturerCard(0x0104, 0x0001), // Socket Communications CF
	ProductStrings("Intel", "PRO/Wireless LAN PC Card"), // 2011B, not 2011
}

// MatchesAny reports whether any row of the identity table matches the
// reported identity. The bus runtime consults this to decide whether to
// deliver insertion events to the driver at all.
func MatchesAny(info CardIdentity) bool {
	for _, id := range SupportedIDs {
		if id.Matches(info) {
			return true
		}
	}
	return false
}
