package models

import (
	"time"

	"gorm.io/gorm"
)

// Work queues. Every task belongs to exactly one.
const (
	QueueTextClub          = "text_club"
	QueueWODIVCS           = "wod_ivcs"
	QueueEmailRequests     = "email_requests"
	QueueYotpo             = "yotpo"
	QueueHolds             = "holds"
	QueueStandaloneRefunds = "standalone_refunds"
)

// Queues lists every valid work queue name.
var Queues = []string{
	QueueTextClub,
	QueueWODIVCS,
	QueueEmailRequests,
	QueueYotpo,
	QueueHolds,
	QueueStandaloneRefunds,
}

// ValidQueue reports whether name is a known work queue.
func ValidQueue(name string) bool {
	for _, q := range Queues {
		if q == name {
			return true
		}
	}
	return false
}

// Task statuses.
const (
	TaskPending      = "pending"
	TaskAssigned     = "assigned"
	TaskInProgress   = "in_progress"
	TaskCompleted    = "completed"
	TaskEscalated    = "escalated"
	TaskSpamReview   = "spam_review"
	TaskSpamArchived = "spam_archived"
)

// User roles and authentication backends.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"

	AuthTypeLocal = "local"
	AuthTypeLDAP  = "ldap"
)

// User represents an agent, manager, or admin.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password  string         `gorm:"size:255" json:"-"` // bcrypt hash, empty for LDAP users
	Email     string         `gorm:"size:255" json:"email"`
	Nickname  string         `gorm:"size:100" json:"nickname"`
	Role      string         `gorm:"size:50;default:agent" json:"role"`      // admin, manager, agent
	AuthType  string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Task is one unit of agent work: an inbound text, email, review, or
// order hold waiting to be triaged, assigned, and completed.
type Task struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Reference string `gorm:"uniqueIndex;size:36" json:"reference"` // public UUID
	Queue     string `gorm:"size:50;index;not null" json:"queue"`
	Brand     string `gorm:"size:100;index" json:"brand"`
	Status    string `gorm:"size:50;index;default:pending" json:"status"`
	Priority  int    `gorm:"default:0" json:"priority"` // higher = more urgent

	Text        string `gorm:"type:text" json:"text"`
	FromAddress string `gorm:"size:255" json:"from_address"` // phone or email of the customer
	Subject     string `gorm:"size:500" json:"subject"`
	OrderNumber string `gorm:"size:100" json:"order_number"`

	AssignedToID *uint      `gorm:"index" json:"assigned_to_id"`
	AssignedTo   *User      `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
	AssignedAt   *time.Time `json:"assigned_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	EscalatedAt  *time.Time `json:"escalated_at"`
	DueAt        *time.Time `gorm:"index" json:"due_at"`

	// Classification snapshot from the last spam check.
	SpamScore    *float64 `json:"spam_score"`
	SpamTier     string   `gorm:"size:30" json:"spam_tier"`
	SpamPatterns string   `gorm:"size:2000" json:"spam_patterns"` // comma-joined matched patterns

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
func (Task) TableName() string { return "tasks" }
