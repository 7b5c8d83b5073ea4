package models

// Category is a fixed assessment dimension scored 0-10 for every stakeholder.
type Category string

const (
	CategoryWebsite          Category = "website"
	CategorySocialMedia      Category = "social_media"
	CategoryOnlineBooking    Category = "online_booking"
	CategoryVisitorReviews   Category = "visitor_reviews"
	CategoryDigitalMarketing Category = "digital_marketing"
	CategoryDigitalPayments  Category = "digital_payments"
	CategoryDiscoverability  Category = "discoverability"
)

// Categories lists every assessment dimension in display order.
var Categories = []Category{
	CategoryWebsite,
	CategorySocialMedia,
	CategoryOnlineBooking,
	CategoryVisitorReviews,
	CategoryDigitalMarketing,
	CategoryDigitalPayments,
	CategoryDiscoverability,
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Label is the total display-name mapping for categories.
func (c Category) Label() string {
	switch c {
	case CategoryWebsite:
		return "Website"
	case CategorySocialMedia:
		return "Social Media"
	case CategoryOnlineBooking:
		return "Online Booking"
	case CategoryVisitorReviews:
		return "Visitor Reviews"
	case CategoryDigitalMarketing:
		return "Digital Marketing"
	case CategoryDigitalPayments:
		return "Digital Payments"
	case CategoryDiscoverability:
		return "Discoverability"
	}
	return string(c)
}
