package entities

// ChainNetwork names one of the configured EVM networks
type ChainNetwork string

const (
	NetworkMainnet          ChainNetwork = "mainnet"
	NetworkMainnetSidechain ChainNetwork = "mainnetsidechain"
	NetworkPolygon          ChainNetwork = "polygon"
)

// BlockchainNetworks lists every network the registry builds clients for
var BlockchainNetworks = []ChainNetwork{
	NetworkMainnet,
	NetworkMainnetSidechain,
	NetworkPolygon,
}

// ContractRole names a deployed contract; addresses differ per network, the ABI does not
type ContractRole string

const (
	ContractAccount   ContractRole = "Account"
	ContractFT        ContractRole = "FT"
	ContractFTProxy   ContractRole = "FTProxy"
	ContractNFT       ContractRole = "NFT"
	ContractNFTProxy  ContractRole = "NFTProxy"
	ContractTrade     ContractRole = "Trade"
	ContractLAND      ContractRole = "LAND"
	ContractLANDProxy ContractRole = "LANDProxy"
)

// ContractRoles lists every role bound on each network
var ContractRoles = []ContractRole{
	ContractAccount,
	ContractFT,
	ContractFTProxy,
	ContractNFT,
	ContractNFTProxy,
	ContractTrade,
	ContractLAND,
	ContractLANDProxy,
}

// IsKnownNetwork reports whether n is one of BlockchainNetworks
func IsKnownNetwork(n ChainNetwork) bool {
	for _, known := range BlockchainNetworks {
		if known == n {
			return true
		}
	}
	return false
}

// IsKnownContractRole reports whether r is one of ContractRoles
func IsKnownContractRole(r ContractRole) bool {
	for _, known := range ContractRoles {
		if known == r {
			return true
		}
	}
	return false
}
