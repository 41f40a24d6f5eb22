// internal/document/types.go
//
// Domain documents mirrored from the host document system. shipdeck never
// owns these records; it reads them, and writes back the handful of fields
// the carrier backend produces (AWB, tracking, status).

package document

// DocStatus values used by the host system.
const (
	DocStatusDraft     = 0
	DocStatusSubmitted = 1
	DocStatusCancelled = 2
)

// Shipment status values shipdeck writes back.
const (
	StatusBooked    = "Booked"
	StatusCancelled = "Cancelled"
	StatusCompleted = "Completed"
)

// Tracking status values shipdeck writes back.
const (
	TrackingInProgress = "In Progress"
	TrackingDelivered  = "Delivered"
)

// SourceItem is one line-item pulled from a source document (a delivery
// note). Items are immutable once read; Payload carries any extra fields the
// creation request needs (weight, batch, serials) without this package caring
// what they are.
type SourceItem struct {
	Name          string         `yaml:"item_name" json:"item_name"`
	Quantity      float64        `yaml:"qty" json:"qty"`
	UnitOfMeasure string         `yaml:"uom" json:"uom"`
	TaxCode       string         `yaml:"tax_code" json:"tax_code"`
	Amount        float64        `yaml:"amount" json:"amount"`
	Payload       map[string]any `yaml:"payload,omitempty" json:"payload,omitempty"`
}

// Parcel is one physical box declared on the shipment document.
type Parcel struct {
	Count  int     `yaml:"count"`
	Weight float64 `yaml:"weight"`
	Length float64 `yaml:"length"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Address holds one side of the shipment route.
type Address struct {
	ContactName string `yaml:"contact_name"`
	CompanyName string `yaml:"company_name"`
	Street1     string `yaml:"street1"`
	Street2     string `yaml:"street2,omitempty"`
	City        string `yaml:"city"`
	State       string `yaml:"state"`
	PostalCode  string `yaml:"postal_code"`
	CountryCode string `yaml:"country_code"`
	Phone       string `yaml:"phone"`
	Email       string `yaml:"email"`
	TaxID       string `yaml:"tax_id,omitempty"`
	Type        string `yaml:"type"` // business or residential
}

// Shipment is the host system's shipment document.
type Shipment struct {
	Name      string `yaml:"name"`
	DocStatus int    `yaml:"docstatus"`
	Status    string `yaml:"status,omitempty"`

	Purpose              string  `yaml:"purpose"`
	DescriptionOfContent string  `yaml:"description_of_content"`
	ShipmentType         string  `yaml:"shipment_type"`
	ValueOfGoods         float64 `yaml:"value_of_goods"`
	Currency             string  `yaml:"currency,omitempty"`

	Pickup   Address `yaml:"pickup"`
	Delivery Address `yaml:"delivery"`

	Parcels       []Parcel `yaml:"parcels"`
	DeliveryNotes []string `yaml:"delivery_notes"`

	// Fields owned by the carrier integration.
	AWBNumber            string `yaml:"awb_number,omitempty"`
	TrackingURL          string `yaml:"tracking_url,omitempty"`
	TrackingStatus       string `yaml:"tracking_status,omitempty"`
	TrackingStatusInfo   string `yaml:"tracking_status_info,omitempty"`
	ServiceProvider      string `yaml:"service_provider,omitempty"`
	CarrierService       string `yaml:"carrier_service,omitempty"`
	ShipmentID           string `yaml:"shipment_id,omitempty"`
	LatestLocation       string `yaml:"latest_location,omitempty"`
	ExpectedDeliveryDate string `yaml:"expected_delivery_date,omitempty"`
	DeliveryDate         string `yaml:"delivery_date,omitempty"`
	LastUpdateReceived   string `yaml:"last_update_received,omitempty"`
}

// Booked reports whether the shipment already has a carrier booking.
func (s *Shipment) Booked() bool {
	return s != nil && s.AWBNumber != ""
}

// ChargedWeight sums the declared parcel weights.
func (s *Shipment) ChargedWeight() float64 {
	var total float64
	for _, p := range s.Parcels {
		total += p.Weight
	}
	return total
}

// Settings is the integration settings document.
type Settings struct {
	Enabled          bool   `yaml:"enabled"`
	EnableAllocation bool   `yaml:"enable_allocation"`
	APIToken         string `yaml:"api_token"`
}

// BookingUpdate carries the fields a successful creation writes back.
type BookingUpdate struct {
	LabelURL           string
	AWBNumber          string
	ServiceProvider    string
	CarrierService     string
	ShipmentID         string
	TrackingStatusInfo string
}

// TrackingUpdate carries the fields a status refresh writes back. Empty
// strings mean "leave the field alone".
type TrackingUpdate struct {
	LatestLocation       string
	Remark               string
	Tag                  string
	DeliveryDate         string
	ExpectedDeliveryDate string
	LastUpdateReceived   string
}
