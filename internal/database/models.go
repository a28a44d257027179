package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Branch struct {
	ID        uuid.UUID
	Name      string
	Address   pgtype.Text
	Phone     pgtype.Text
	IsActive  bool
	CreatedAt time.Time
}

type Section struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

type ItemCategory struct {
	ID         uuid.UUID
	NameEn     string
	NameUr     pgtype.Text
	TotalItems int32
	CreatedAt  time.Time
}

type SubCategory struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	NameEn     string
	NameUr     pgtype.Text
	CreatedAt  time.Time
}

type BranchCategory struct {
	ID         uuid.UUID
	NameEn     string
	NameUr     pgtype.Text
	TotalItems int32
	CreatedAt  time.Time
}

type PurchaseCategory struct {
	ID         uuid.UUID
	NameEn     string
	NameUr     pgtype.Text
	TotalItems int32
	CreatedAt  time.Time
}

// Item carries branch assignment as raw JSON. Historical data holds four
// shapes (bare ID string, {_id: ...} object, arrays of either, and the legacy
// plural column); service.AssignedBranchIDs normalizes them at read time.
type Item struct {
	ID             uuid.UUID
	Code           string
	Name           string
	Unit           string
	CategoryID     pgtype.UUID
	SubCategoryID  pgtype.UUID
	SectionID      pgtype.UUID
	AssignBranch   []byte
	AssignBranches []byte
	IsActive       bool
	CreatedAt      time.Time
}

type User struct {
	ID             uuid.UUID
	BranchID       uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
}

type Order struct {
	ID            uuid.UUID
	OrderNo       string
	BranchID      uuid.UUID
	SectionID     pgtype.UUID
	OrderType     string
	Status        string
	ScheduleDate  pgtype.Timestamptz
	DeliveryDate  time.Time
	CreatedBy     uuid.UUID
	CreatedByName string
	Version       int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem is a denormalized snapshot of the catalog item at order-creation
// time. ShippedQty, ReceivedQty and MissingQty stay NULL until the order has
// passed SENT_TO_KITCHEN.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	Position     int32
	ItemCode     string
	ItemName     string
	Unit         string
	Category     string
	SubCategory  pgtype.Text
	OrderQty     pgtype.Numeric
	ShippedQty   pgtype.Numeric
	ReceivedQty  pgtype.Numeric
	MissingQty   pgtype.Numeric
	QualityIssue bool
}

type WastageRecord struct {
	ID             uuid.UUID
	BranchID       uuid.UUID
	SectionID      uuid.UUID
	ItemCode       string
	ItemName       string
	Unit           string
	Qty            pgtype.Numeric
	WastageType    string
	MediaPath      pgtype.Text
	RecordedBy     uuid.UUID
	RecordedByName string
	CreatedAt      time.Time
}
