// Package rowbinary persists decay events as fixed 26-field records in an
// Avro object container file.
package rowbinary

import (
	"strconv"

	"github.com/ajitpratap0/hepconv/pkg/models"
	gojson "github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"
)

// CapacityKey is the container metadata entry recording the negotiated
// dataset capacity.
const CapacityKey = "hepconv.capacity"

type avroField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type avroRecord struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Fields []avroField `json:"fields"`
}

// Schema returns the Avro schema of one DecayTree record
func Schema() (string, error) {
	rec := avroRecord{Type: "record", Name: models.TreeName}
	for _, c := range models.Columns() {
		typ := "double"
		if c.Kind == models.KindInt32 {
			typ = "int"
		}
		rec.Fields = append(rec.Fields, avroField{Name: c.Name, Type: typ})
	}
	b, err := gojson.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newCodec() (*goavro.Codec, error) {
	schema, err := Schema()
	if err != nil {
		return nil, err
	}
	return goavro.NewCodec(schema)
}

func encodeCapacity(capacity int64) []byte {
	return []byte(strconv.FormatInt(capacity, 10))
}

func decodeCapacity(meta map[string][]byte) (int64, bool) {
	raw, ok := meta[CapacityKey]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func compressionName(name string) string {
	switch name {
	case "deflate":
		return goavro.CompressionDeflateLabel
	case "snappy":
		return goavro.CompressionSnappyLabel
	default:
		return goavro.CompressionNullLabel
	}
}
