package redis

// KeyType is the type tag the server reports for a key (TYPE command).
// Tags the client does not know are kept verbatim.
type KeyType string

const (
	TypeNone   KeyType = "none"
	TypeString KeyType = "string"
	TypeList   KeyType = "list"
	TypeHash   KeyType = "hash"
	TypeSet    KeyType = "set"
	TypeZSet   KeyType = "zset"
	TypeStream KeyType = "stream"
)

func (t KeyType) String() string {
	return string(t)
}

// Value is the result of the generic Get.
//
// Exactly one of String or Hash is meaningful, depending on Type.
// Found is false when the key does not exist, or holds an empty hash.
type Value struct {
	Key    string
	Type   KeyType
	String string
	Hash   map[string]string
	Found  bool // indicates whether the key holds a value
}

// IsHash reports whether the value is a mapping.
func (v Value) IsHash() bool {
	return v.Found && v.Type == TypeHash
}
