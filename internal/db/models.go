package db

import (
	"time"
)

// Business maps leads.businesses: one row per accepted scored record.
type Business struct {
	BusinessID    int64      `gorm:"column:business_id;primaryKey;autoIncrement"`
	BusinessUUID  string     `gorm:"column:business_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Fingerprint   string     `gorm:"column:fingerprint;type:text;not null;unique"`
	Platform      string     `gorm:"column:platform;type:text;not null;index"`
	SourceURL     string     `gorm:"column:source_url;type:text;not null"`
	BusinessName  string     `gorm:"column:business_name;type:text;not null"`
	Description   string     `gorm:"column:description;type:text;not null;default:''"`
	Category      string     `gorm:"column:category;type:text;not null;index"`
	Location      *string    `gorm:"column:location;type:text"`
	Phone         *string    `gorm:"column:phone;type:text"`
	Email         *string    `gorm:"column:email;type:text"`
	Language      *string    `gorm:"column:language;type:text"`
	Score         int        `gorm:"column:confidence_score;type:integer;not null"`
	Priority      string     `gorm:"column:priority;type:text;not null;index"`
	PageCreatedAt *time.Time `gorm:"column:page_created_at;type:timestamptz"`
	DiscoveredAt  time.Time  `gorm:"column:discovered_at;type:timestamptz;not null;index"`
	Alerted       bool       `gorm:"column:alerted;type:boolean;not null;default:false"`
	Exported      bool       `gorm:"column:exported;type:boolean;not null;default:false"`
	CreatedAt     time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Business) TableName() string { return "leads.businesses" }

// SeenFingerprint maps leads.seen_fingerprints: the persistent SeenSet.
type SeenFingerprint struct {
	Fingerprint string    `gorm:"column:fingerprint;type:text;primaryKey"`
	FirstSeenAt time.Time `gorm:"column:first_seen_at;type:timestamptz;not null;default:now()"`
}

func (SeenFingerprint) TableName() string { return "leads.seen_fingerprints" }

// DiscoveryRun maps leads.discovery_runs: one row per ingest batch.
type DiscoveryRun struct {
	RunID            int64      `gorm:"column:run_id;primaryKey;autoIncrement"`
	RunUUID          string     `gorm:"column:run_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Source           string     `gorm:"column:source;type:text;not null"`
	StartedAt        time.Time  `gorm:"column:started_at;type:timestamptz;not null;default:now()"`
	FinishedAt       *time.Time `gorm:"column:finished_at;type:timestamptz"`
	CandidatesTotal  int        `gorm:"column:candidates_total;type:integer;not null;default:0"`
	Accepted         int        `gorm:"column:accepted;type:integer;not null;default:0"`
	RejectedInvalid  int        `gorm:"column:rejected_invalid_url;type:integer;not null;default:0"`
	RejectedDupes    int        `gorm:"column:rejected_duplicate;type:integer;not null;default:0"`
	RejectedLowScore int        `gorm:"column:rejected_below_floor;type:integer;not null;default:0"`
	CreatedAt        time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (DiscoveryRun) TableName() string { return "leads.discovery_runs" }

func autoMigrateModels() []any {
	return []any{
		&Business{},
		&SeenFingerprint{},
		&DiscoveryRun{},
	}
}
