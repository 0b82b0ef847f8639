package bridge

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
)

/*TypeSpec is the catalog's entry for one request type: its human name, the
size of the request payload it expects, and the size of the payload its
SUCCESS answer carries. REQUEST_REJECTED and WRONG_REQUEST_ARGUMENTS answers
always have a zero-size payload regardless of request type, so that size is
not stored here.*/
type TypeSpec struct {
	Name                     string
	RequestPayloadSize       uint16
	SuccessAnswerPayloadSize uint16
}

//String implements the Stringer interface
func (s TypeSpec) String() string {
	return fmt.Sprintf("%s: request=%dB success-answer=%dB", s.Name, s.RequestPayloadSize, s.SuccessAnswerPayloadSize)
}

/*Catalog is a pure, stateless map from RequestType to its TypeSpec. It has
no runtime mutability of its own - Register/Merge return a new Catalog
rather than mutating in place, so a host can extend the built-in catalog
without affecting anyone else still holding the original.*/
type Catalog map[RequestType]TypeSpec

/*NewCatalog returns a Catalog containing only the protocol's two built-in
request types. Hosts extend it via Register or Merge.*/
func NewCatalog() Catalog {
	return Catalog{
		RequestMatchProtocolVersion: {
			Name:                     RequestMatchProtocolVersion.String(),
			RequestPayloadSize:       2,
			SuccessAnswerPayloadSize: 2,
		},
		RequestGetDeviceInfo: {
			Name:                     RequestGetDeviceInfo.String(),
			RequestPayloadSize:       0,
			SuccessAnswerPayloadSize: 8,
		},
	}
}

/*RequestPayloadSize returns the expected wire payload_size for a request of
this type. Unknown request types return 0 - the framer catches an actually
unknown type via the resulting size (or CRC) disagreement; dispatchers
reject unknown types separately.*/
func (c Catalog) RequestPayloadSize(t RequestType) uint16 {
	return c[t].RequestPayloadSize
}

/*AnswerPayloadSize returns the expected wire payload_size for an answer of
answerType to a request of requestType. REQUEST_REJECTED and
WRONG_REQUEST_ARGUMENTS are always 0; only SUCCESS is request-type-specific.*/
func (c Catalog) AnswerPayloadSize(requestType RequestType, answerType AnswerType) uint16 {
	if answerType != AnswerSuccess {
		return 0
	}
	return c[requestType].SuccessAnswerPayloadSize
}

/*Contains returns true if the catalog has an entry for every passed type.*/
func (c Catalog) Contains(types ...RequestType) bool {
	if c == nil || len(types) == 0 {
		return false
	}
	for _, t := range types {
		if _, ok := c[t]; !ok {
			return false
		}
	}
	return true
}

/*Clone returns a deep-enough copy of the Catalog: a new map with the same entries.*/
func (c Catalog) Clone() Catalog {
	r := Catalog{}
	for t, spec := range c {
		r[t] = spec
	}
	return r
}

/*Register returns a new Catalog equal to c plus (or overriding) the entry
for t. Call Merge(NewCatalog(), myExtra) instead if starting from scratch.*/
func (c Catalog) Register(t RequestType, spec TypeSpec) Catalog {
	r := c.Clone()
	r[t] = spec
	return r
}

/*Merge takes multiple catalogs and returns a single catalog containing
every entry from all of them. Entries from later catalogs win on conflict.*/
func Merge(catalogs ...Catalog) Catalog {
	r := Catalog{}
	for _, c := range catalogs {
		for t, spec := range c {
			r[t] = spec
		}
	}
	return r
}

//String implements the Stringer() interface, rendering the catalog as a table.
func (c Catalog) String() (out string) {
	types := make([]int, 0, len(c))
	for t := range c {
		types = append(types, int(t))
	}
	sort.Ints(types)

	buf := bytes.NewBufferString("")
	tw := tablewriter.NewWriter(buf)
	tw.SetAutoWrapText(false)
	tw.SetHeader([]string{"Type", "Name", "Request Payload", "Success Answer Payload"})

	for _, t := range types {
		spec := c[RequestType(t)]
		tw.Append([]string{
			fmt.Sprintf("%d", t),
			spec.Name,
			fmt.Sprintf("%d", spec.RequestPayloadSize),
			fmt.Sprintf("%d", spec.SuccessAnswerPayloadSize),
		})
	}
	tw.Render()
	return buf.String()
}
