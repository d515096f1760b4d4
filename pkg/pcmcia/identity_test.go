package pcmcia

import "testing"

func TestDeviceIDMatching(t *testing.T) {
	tests := []struct {
		name string
		id   DeviceID
		info CardIdentity
		want bool
	}{
		{
			"ManfCardMatch",
			ManufacturerCard(0x026c, 0x0001),
			CardIdentity{Manufacturer: 0x026c, Card: 0x0001},
			true,
		},
		{
			"ManfCardWrongCard",
			ManufacturerCard(0x026c, 0x0001),
			CardIdentity{Manufacturer: 0x026c, Card: 0x0002},
			false,
		},
		{
			"ProductStringsMatch",
			ProductStrings("Intel", "PRO/Wireless LAN PC Card"),
			CardIdentity{Product1: "Intel", Product2: "PRO/Wireless LAN PC Card"},
			true,
		},
		{
			"ProductStringsOnePartial",
			ProductStrings("Intel", "PRO/Wireless LAN PC Card"),
			CardIdentity{Product1: "Intel", Product2: "PRO/Wireless 2011"},
			false,
		},
		{
			"ZeroIDMatchesNothing",
			DeviceID{},
			CardIdentity{},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.Matches(tt.info); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesAnySupportedCards(t *testing.T) {
	supported := []CardIdentity{
		{Manufacturer: 0x026c, Card: 0x0001}, // Symbol Spectrum24 LA4137
		{Manufacturer: 0x0104, Card: 0x0001}, // Socket Communications CF
		{Product1: "Intel", Product2: "PRO/Wireless LAN PC Card"},
	}
	for _, info := range supported {
		if !MatchesAny(info) {
			t.Errorf("MatchesAny(%+v) = false, want true", info)
		}
	}

	if MatchesAny(CardIdentity{Manufacturer: 0x1234, Card: 0x5678}) {
		t.Error("MatchesAny matched an unknown card")
	}
}

func TestHashProductStability(t *testing.T) {
	// Identity tables and reported strings must agree on the hash.
	if HashProduct("Intel") != HashProduct("Intel") {
		t.Error("HashProduct is not deterministic")
	}
	if HashProduct("Intel") == HashProduct("intel") {
		t.Error("HashProduct must be case-sensitive")
	}
}
