package index

// Posting records how often a term occurs in one document.
type Posting struct {
	DocID     int64
	Frequency int
	Positions []int
}

// PostingList is always sorted by DocID.
type PostingList []Posting

// TermEntry pairs a term with its postings for ordered iteration.
type TermEntry struct {
	Term     string
	Postings PostingList
}
