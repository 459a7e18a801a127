package entities

import "github.com/ethereum/go-ethereum/core/types"

// AllEvents selects every event a contract emitted
const AllEvents = "allEvents"

// ContractEvent is one decoded historical log of a bound contract
type ContractEvent struct {
	Event            string                 `json:"event,omitempty"`
	Signature        string                 `json:"signature,omitempty"`
	Address          string                 `json:"address"`
	BlockNumber      uint64                 `json:"blockNumber"`
	BlockHash        string                 `json:"blockHash"`
	TransactionHash  string                 `json:"transactionHash"`
	TransactionIndex uint                   `json:"transactionIndex"`
	LogIndex         uint                   `json:"logIndex"`
	Removed          bool                   `json:"removed"`
	ReturnValues     map[string]interface{} `json:"returnValues"`
	Raw              types.Log              `json:"raw"`
}
