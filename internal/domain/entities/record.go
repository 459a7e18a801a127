package entities

// DefaultRecordTable is the collection scanned when the caller names none
const DefaultRecordTable = "sidechain-cache"

// RecordIDField is the primary key field present on every stored record
const RecordIDField = "id"

// Record is a flat field mapping keyed by RecordIDField
type Record map[string]interface{}

// ID returns the record's primary key, or "" when absent
func (r Record) ID() string {
	id, _ := r[RecordIDField].(string)
	return id
}

// WithID returns a copy of r with the primary key set to id. The id always wins over
// a caller supplied "id" field.
func (r Record) WithID(id string) Record {
	out := make(Record, len(r)+1)
	for k, v := range r {
		out[k] = v
	}
	out[RecordIDField] = id
	return out
}

// WriteAck acknowledges a successful upsert
type WriteAck struct {
	Table string `json:"table"`
	ID    string `json:"id"`
}
