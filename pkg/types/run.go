package types

// Checkpoint is one node in a map's checkpoint graph.
type Checkpoint struct {
	ID    int64
	MapID int64
	IsEnd bool
}

// Run identifies a finished player run together with its recorded frame rate.
type Run struct {
	RunID      int64
	PlayerID   int64
	PlayerName string
	MapID      int64
	MapName    string
	FPS        int
}

// Candidate is one run whose time across the selected checkpoint segment
// undercuts the reference time. SegmentTime is the end-checkpoint time minus
// the start-checkpoint time; OldTime is the run's final checkpoint
// time_played, the value the correction is anchored to.
type Candidate struct {
	Run
	SegmentTime float64
	OldTime     float64
}

// Adjustment is one statistic-row correction. RunID and CPID identify the
// row; Old and New are its time_played seconds before and after the write.
type Adjustment struct {
	RunID int64
	CPID  int64
	Old   float64
	New   float64
}

// Delta returns the change in seconds applied to the row.
func (a Adjustment) Delta() float64 {
	return a.New - a.Old
}
