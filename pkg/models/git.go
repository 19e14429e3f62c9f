package models

// Commit is a single commit as seen through a remote-tracking branch
type Commit struct {
	Hash    string `json:"hash"`
	Subject string `json:"subject"`
}

// CommitBatch is the set of commits discovered by one poll, oldest first
type CommitBatch []Commit

// Hashes returns the hashes of the batch in batch order
func (b CommitBatch) Hashes() []string {
	hashes := make([]string, len(b))
	for i, c := range b {
		hashes[i] = c.Hash
	}
	return hashes
}

// Newest returns the last commit of the batch
func (b CommitBatch) Newest() (Commit, bool) {
	if len(b) == 0 {
		return Commit{}, false
	}
	return b[len(b)-1], true
}
