package blockchain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"chain-gateway.backend/internal/domain/entities"
	domainerrors "chain-gateway.backend/internal/domain/errors"
)

// maxConfigDocumentSize caps a remote config document
const maxConfigDocumentSize = 16 << 20

var exportDefaultPrefix = regexp.MustCompile(`^\s*export\s*default\s*`)

// ContractAddresses maps network -> role -> hex address
type ContractAddresses map[entities.ChainNetwork]map[entities.ContractRole]string

// ContractABIs maps role -> ABI JSON; the same ABI is bound on every network
type ContractABIs map[entities.ContractRole]json.RawMessage

// NodePorts holds the sidechain node ports published next to the contract config
type NodePorts struct {
	MainnetSidechain   int `json:"mainnetsidechain"`
	MainnetSidechainWs int `json:"mainnetsidechainWs"`
}

func (p NodePorts) validate() error {
	if p.MainnetSidechain <= 0 || p.MainnetSidechainWs <= 0 {
		return fmt.Errorf("%w: ports document lacks mainnetsidechain/mainnetsidechainWs", domainerrors.ErrMalformedConfig)
	}
	return nil
}

// stripExportDefault turns an ES module `export default {...}` body into plain JSON
func stripExportDefault(body []byte) []byte {
	return exportDefaultPrefix.ReplaceAll(body, nil)
}

// fetchConfigDocument GETs url and decodes its JSON payload into out
func fetchConfigDocument(ctx context.Context, client *http.Client, url string, out interface{}) error {
	op := "fetch " + url
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domainerrors.Transport(op, fmt.Errorf("create request: %w", err))
	}

	resp, err := client.Do(req)
	if err != nil {
		return domainerrors.Transport(op, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domainerrors.Transport(op, fmt.Errorf("request failed: %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxConfigDocumentSize))
	if err != nil {
		return domainerrors.Transport(op, fmt.Errorf("read body: %w", err))
	}

	if err := json.Unmarshal(stripExportDefault(body), out); err != nil {
		return domainerrors.Config(op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
