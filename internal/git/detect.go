package git

import "gitnotifier/pkg/models"

// detectNew pairs hashes with subjects (both newest first) and returns the
// commits newer than mark, oldest first. Without a mark every commit is new.
// markFound reports whether the mark was seen; when it was not, the mark has
// scrolled out of the queried window and the whole window is returned.
func detectNew(hashes, subjects []string, mark string, hasMark bool) (batch models.CommitBatch, markFound bool) {
	for i, hash := range hashes {
		if hasMark && hash == mark {
			markFound = true
			break
		}
		batch = append(batch, models.Commit{Hash: hash, Subject: subjects[i]})
	}

	for i, j := 0, len(batch)-1; i < j; i, j = i+1, j-1 {
		batch[i], batch[j] = batch[j], batch[i]
	}

	if batch == nil {
		batch = models.CommitBatch{}
	}
	return batch, markFound
}
