// internal/banner/object.go
package banner

import "fmt"

// ObjectName is the standard name of a device identification object.
type ObjectName uint8

const (
	VendorName ObjectName = iota
	ProductCode
	Revision
	VendorURL
	ProductName
	ModelName
	UserAppName
	PrivateObjects
	Unknown
)

var objectNames = [...]string{
	VendorName:     "VendorName",
	ProductCode:    "ProductCode",
	Revision:       "Revision",
	VendorURL:      "VendorUrl",
	ProductName:    "ProductName",
	ModelName:      "ModelName",
	UserAppName:    "UserAppName",
	PrivateObjects: "PrivateObjects",
	Unknown:        "Unknown",
}

func (n ObjectName) String() string {
	if int(n) < len(objectNames) {
		return objectNames[n]
	}
	return fmt.Sprintf("ObjectName(%d)", uint8(n))
}

func (n ObjectName) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *ObjectName) UnmarshalText(b []byte) error {
	for i, s := range objectNames {
		if s == string(b) {
			*n = ObjectName(i)
			return nil
		}
	}
	return fmt.Errorf("banner: unknown object name %q", b)
}

// NameOf maps an object id to its name.
// 0x00..0x06 are standard. Only 0x80 and 0xFF are named PrivateObjects;
// every other id, including the rest of the private range, is Unknown.
func NameOf(id byte) ObjectName {
	switch {
	case id <= 0x06:
		return ObjectName(id)
	case id == 0x80, id == 0xFF:
		return PrivateObjects
	default:
		return Unknown
	}
}

// Object is one decoded (id, value) pair.
type Object struct {
	ID    byte       `json:"id"`
	Name  ObjectName `json:"name"`
	Value string     `json:"value"`
	Raw   []byte     `json:"raw"`
}
