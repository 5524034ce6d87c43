package domain

// Villa is managed outside this service. Only active villas take bookings or
// answer availability queries.
type Villa struct {
	ID       int64
	Name     string
	IsActive bool
}
