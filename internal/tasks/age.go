package tasks

import "time"

// AgeBucket groups tasks by how long ago they were created.
type AgeBucket string

const (
	BucketToday AgeBucket = "today"
	BucketDay   AgeBucket = "day"
	BucketWeek  AgeBucket = "week"
)

var Buckets = []AgeBucket{BucketToday, BucketDay, BucketWeek}

const (
	day  = 24 * time.Hour
	week = 7 * day
)

func BucketOf(createdAt, now time.Time) AgeBucket {
	age := now.Sub(createdAt)
	switch {
	case age >= week:
		return BucketWeek
	case age >= day:
		return BucketDay
	default:
		return BucketToday
	}
}

func (b AgeBucket) Heading() string {
	switch b {
	case BucketDay:
		return "Created a day ago"
	case BucketWeek:
		return "Created a week ago"
	default:
		return "Today"
	}
}

// Row is a task as shown in a filtered view. Index is its position in that view,
// the value reorder operations expect.
type Row struct {
	Index int  `json:"index"`
	Task  Task `json:"task"`
}

type Group struct {
	Bucket  AgeBucket `json:"bucket"`
	Heading string    `json:"heading"`
	Rows    []Row     `json:"rows"`
}

// GroupByAge partitions an already filtered view into the three age groups.
// All groups are returned, empty ones included, in Buckets order.
func GroupByAge(view []Task, now time.Time) []Group {
	groups := make([]Group, len(Buckets))
	slot := make(map[AgeBucket]int, len(Buckets))
	for i, b := range Buckets {
		groups[i] = Group{Bucket: b, Heading: b.Heading(), Rows: []Row{}}
		slot[b] = i
	}
	for i, t := range view {
		g := slot[BucketOf(t.CreatedAt, now)]
		groups[g].Rows = append(groups[g].Rows, Row{Index: i, Task: t})
	}
	return groups
}
