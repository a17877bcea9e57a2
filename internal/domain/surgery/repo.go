package surgery

import "context"

type SurgeryRepository interface {
	Create(ctx context.Context, s *Surgery) error
	GetByID(ctx context.Context, id int64) (*Surgery, error)
	Update(ctx context.Context, s *Surgery) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
	// Search filters by q (patient, surgeon or type), status, room and date,
	// ordered by date and start time.
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Surgery, int, error)
	Stats(ctx context.Context, date string) (*BoardStats, error)
}

type RoomRepository interface {
	// List returns every room ordered by name.
	List(ctx context.Context) ([]*OperatingRoom, error)
	GetByID(ctx context.Context, id int64) (*OperatingRoom, error)
	UpdateStatus(ctx context.Context, id int64, u RoomStatusUpdate) (*OperatingRoom, error)
}
