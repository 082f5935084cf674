package execution

// stalenessBlockThreshold is the number of blocks a simulation may lag
// behind the current chain tip before it must be refreshed — roughly
// 1.2s at a 400ms block time.
const stalenessBlockThreshold = 3

// CheckStaleness reports whether a simulation run at simulationBlock is
// stale relative to currentBlock: stale once the gap reaches the
// threshold, not only once it exceeds it.
func CheckStaleness(simulationBlock, currentBlock uint64) (stale bool, requiresRefresh bool) {
	if currentBlock < simulationBlock {
		return false, false
	}
	gap := currentBlock - simulationBlock
	stale = gap >= stalenessBlockThreshold
	return stale, stale
}
