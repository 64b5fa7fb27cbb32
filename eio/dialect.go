package eio

// Dialect is the data-driven description of one Engine.IO protocol
// version's behavioral differences (spec.md §9 Design Notes: "Represent
// this as a single engine value carrying a dialect descriptor... not as
// subclass hierarchy. All behavioral differences are data.").
type Dialect struct {
	// Version is the EIO query-parameter value (2, 3 or 4).
	Version int

	// LengthPrefixed selects the "<decimalLen>:<payload>" polling-body
	// framing used by EIO<=3. EIO>=4 polling bodies carry a single packet
	// (or multiple packets separated by 0x1E) with no length prefix.
	LengthPrefixed bool

	// PreUpgradeNamespaceConnect requires a namespace CONNECT
	// (POST then GET) over polling before the WebSocket upgrade is
	// attempted (EIO>=4 only, spec.md §4.2).
	PreUpgradeNamespaceConnect bool

	// AuthInHandshake allows an `auth` payload to ride along with the
	// namespace CONNECT packet (EIO>=4 only).
	AuthInHandshake bool

	// DrainSpuriousConnectAfterUpgrade consumes and discards a gratuitous
	// Socket.IO "40" the server sends right after the upgrade completes
	// (EIO==2 only, spec.md §4.2 — "spec mandates always draining it").
	DrainSpuriousConnectAfterUpgrade bool

	// LegacyWebSocketKey uses sha1(uniqid)-derived Sec-WebSocket-Key
	// generation instead of 16 random bytes, matching very old (EIO<=2)
	// client behavior (spec.md §4.2).
	LegacyWebSocketKey bool
}

// DialectV2 is the EIO 2 wire dialect.
func DialectV2() Dialect {
	return Dialect{
		Version:                          2,
		LengthPrefixed:                   true,
		DrainSpuriousConnectAfterUpgrade: true,
		LegacyWebSocketKey:               true,
	}
}

// DialectV3 is the EIO 3 wire dialect.
func DialectV3() Dialect {
	return Dialect{
		Version:        3,
		LengthPrefixed: true,
	}
}

// DialectV4 is the EIO 4 wire dialect.
func DialectV4() Dialect {
	return Dialect{
		Version:                    4,
		PreUpgradeNamespaceConnect: true,
		AuthInHandshake:            true,
	}
}

// Version constants from spec.md §6, each fixing a default Dialect. The
// legacy 0X/1X client families both default onto the EIO2 wire format;
// callers may still override Options.Version explicitly.
const (
	EIO0X = iota
	EIO1X
	EIO2X
	EIO3X
	EIO4X
)

// DialectFor returns the default Dialect for one of the version
// constants above.
func DialectFor(versionConst int) Dialect {
	switch versionConst {
	case EIO0X, EIO1X:
		return DialectV2()
	case EIO2X:
		return DialectV3()
	case EIO3X, EIO4X:
		return DialectV4()
	default:
		return DialectV4()
	}
}
