// internal/carrier/payload.go
//
// Request payload builders. The wire format belongs to the backend; these
// structs only mirror it. Item payload maps pass through untouched fields
// the allocation core never interprets (weight, batch numbers).

package carrier

import (
	"github.com/fruttersoft/shipdeck/internal/allocation"
	"github.com/fruttersoft/shipdeck/internal/document"
)

const defaultCurrency = "INR"

type weightPayload struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type dimensionPayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Length float64 `json:"length"`
	Unit   string  `json:"unit"`
}

type pricePayload struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type partyPayload struct {
	ContactName string `json:"contact_name"`
	CompanyName string `json:"company_name"`
	Street1     string `json:"street1"`
	Street2     string `json:"street2,omitempty"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	TaxID       string `json:"tax_id,omitempty"`
	Type        string `json:"type"`
	IsPrimary   bool   `json:"is_primary,omitempty"`
}

type itemPayload struct {
	Description   string        `json:"description"`
	OriginCountry string        `json:"origin_country"`
	SKU           string        `json:"sku"`
	HSCode        string        `json:"hs_code"`
	Variant       string        `json:"variant"`
	Quantity      float64       `json:"quantity"`
	Price         pricePayload  `json:"price"`
	Weight        weightPayload `json:"weight"`
}

type parcelPayload struct {
	Description string           `json:"description"`
	BoxType     string           `json:"box_type"`
	Quantity    int              `json:"quantity"`
	Weight      weightPayload    `json:"weight"`
	Dimension   dimensionPayload `json:"dimension"`
	Items       []itemPayload    `json:"items"`
	OrderValue  float64          `json:"order_value"`
}

type shipmentPayload struct {
	ShipFrom  partyPayload    `json:"ship_from"`
	ShipTo    partyPayload    `json:"ship_to"`
	ReturnTo  partyPayload    `json:"return_to"`
	IsReverse bool            `json:"is_reverse"`
	IsToPay   bool            `json:"is_to_pay"`
	Parcels   []parcelPayload `json:"parcels"`
}

type servicesRequest struct {
	IsDocument bool `json:"is_document"`
	Shipment   struct {
		IsReverse         bool         `json:"is_reverse"`
		Purpose           string       `json:"purpose"`
		IsCOD             bool         `json:"is_cod"`
		CollectOnDelivery pricePayload `json:"collect_on_delivery"`
		ShipFrom          partyPayload `json:"ship_from"`
		ShipTo            partyPayload `json:"ship_to"`
		ReturnTo          partyPayload `json:"return_to"`
		Parcels           []parcelPayload `json:"parcels"`
	} `json:"shipment"`
}

type createRequest struct {
	Billing struct {
		PaidBy string `json:"paid_by"`
	} `json:"billing"`
	// Vendor, slug and service type are explicit nulls on the rule-based
	// path; the backend's rule engine fills them in.
	VendorID          *string         `json:"vendor_id"`
	Description       string          `json:"description"`
	Slug              *string         `json:"slug"`
	Purpose           string          `json:"purpose"`
	OrderSource       string          `json:"order_source"`
	ParcelContents    string          `json:"parcel_contents"`
	IsDocument        bool            `json:"is_document"`
	ServiceType       *string         `json:"service_type"`
	ChargedWeight     weightPayload   `json:"charged_weight"`
	CustomerReference string          `json:"customer_reference"`
	IsCOD             bool            `json:"is_cod"`
	CollectOnDelivery pricePayload    `json:"collect_on_delivery"`
	Shipment          shipmentPayload `json:"shipment"`
}

func party(addr document.Address, primary bool) partyPayload {
	return partyPayload{
		ContactName: addr.ContactName,
		CompanyName: addr.CompanyName,
		Street1:     addr.Street1,
		Street2:     addr.Street2,
		City:        addr.City,
		State:       addr.State,
		PostalCode:  addr.PostalCode,
		Country:     addr.CountryCode,
		Phone:       addr.Phone,
		Email:       addr.Email,
		TaxID:       addr.TaxID,
		Type:        addr.Type,
		IsPrimary:   primary,
	}
}

func currencyOf(doc *document.Shipment) string {
	if doc.Currency != "" {
		return doc.Currency
	}
	return defaultCurrency
}

// itemWeight reads the pass-through weight an upstream document may carry.
func itemWeight(item document.SourceItem) float64 {
	if item.Payload == nil {
		return 0
	}
	switch v := item.Payload["weight"].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func buildItem(item document.SourceItem, originCountry, currency string) itemPayload {
	return itemPayload{
		Description:   item.Name,
		OriginCountry: originCountry,
		SKU:           item.UnitOfMeasure,
		HSCode:        item.TaxCode,
		Quantity:      item.Quantity,
		Price: pricePayload{
			Amount:   item.Amount,
			Currency: currency,
		},
		Weight: weightPayload{
			Value: itemWeight(item),
			Unit:  "kg",
		},
	}
}

// buildParcels expands the document's declared parcels with their allocated
// items. Parcel indices are 1-based positions in the document's parcel list.
func buildParcels(doc *document.Shipment, part allocation.Partition) []parcelPayload {
	currency := currencyOf(doc)
	parcels := make([]parcelPayload, 0, len(doc.Parcels))
	for i, parcel := range doc.Parcels {
		assigned := part[i+1]
		items := make([]itemPayload, 0, len(assigned))
		var orderValue float64
		for _, item := range assigned {
			items = append(items, buildItem(item, doc.Pickup.CountryCode, currency))
			orderValue += item.Amount
		}
		parcels = append(parcels, parcelPayload{
			Description: doc.DescriptionOfContent,
			BoxType:     doc.ShipmentType,
			Quantity:    parcel.Count,
			Weight:      weightPayload{Value: parcel.Weight, Unit: "kg"},
			Dimension: dimensionPayload{
				Width:  parcel.Width,
				Height: parcel.Height,
				Length: parcel.Length,
				Unit:   "cm",
			},
			Items:      items,
			OrderValue: orderValue,
		})
	}
	return parcels
}

func buildServicesRequest(doc *document.Shipment) servicesRequest {
	var req servicesRequest
	req.Shipment.Purpose = doc.Purpose
	req.Shipment.CollectOnDelivery = pricePayload{Currency: currencyOf(doc)}
	req.Shipment.ShipFrom = party(doc.Pickup, true)
	req.Shipment.ShipTo = party(doc.Delivery, false)
	req.Shipment.ReturnTo = party(doc.Pickup, true)
	req.Shipment.Parcels = buildParcels(doc, allocation.Partition{})
	return req
}

// buildCreateRequest assembles a creation request. A nil offering produces
// the rule-based variant with nulled carrier fields.
func buildCreateRequest(doc *document.Shipment, offering *ServiceOffering, part allocation.Partition) createRequest {
	req := createRequest{
		Description:    "Rule Based",
		Purpose:        doc.Purpose,
		OrderSource:    "manual",
		ParcelContents: doc.DescriptionOfContent,
		ChargedWeight: weightPayload{
			Unit:  "KG",
			Value: doc.ChargedWeight(),
		},
		CustomerReference: doc.Name,
		CollectOnDelivery: pricePayload{Currency: currencyOf(doc)},
		Shipment: shipmentPayload{
			ShipFrom: party(doc.Pickup, false),
			ShipTo:   party(doc.Delivery, false),
			ReturnTo: party(doc.Pickup, false),
			Parcels:  buildParcels(doc, part),
		},
	}
	req.Billing.PaidBy = "shipper"
	if offering != nil {
		req.VendorID = &offering.VendorID
		req.Description = offering.Description
		req.Slug = &offering.Slug
		req.ServiceType = &offering.ServiceType
	}
	return req
}
