package source

// Product catalog shared by both simulated upstreams.
var Categories = []string{"Electronics", "Clothing", "Home & Kitchen", "Beauty", "Books", "Sports", "Toys"}

var Brands = map[string][]string{
	"Electronics":    {"Samsung", "Apple", "Sony", "LG", "Dell", "HP", "Lenovo", "Asus", "Microsoft", "Bose"},
	"Clothing":       {"Nike", "Adidas", "H&M", "Zara", "Levi's", "Gap", "Calvin Klein", "Gucci", "Puma", "Under Armour"},
	"Home & Kitchen": {"Ikea", "Bosch", "Philips", "KitchenAid", "Dyson", "Cuisinart", "Crate & Barrel", "OXO", "Ninja", "Hamilton Beach"},
	"Beauty":         {"L'Oreal", "Maybelline", "MAC", "Estee Lauder", "Clinique", "Dove", "Neutrogena", "Nivea", "Olay", "Revlon"},
	"Books":          {"Penguin", "HarperCollins", "Simon & Schuster", "Hachette", "Macmillan", "Scholastic", "Wiley", "Oxford", "Pearson", "McGraw-Hill"},
	"Sports":         {"Nike", "Adidas", "Puma", "Under Armour", "Wilson", "Spalding", "Reebok", "New Balance", "Columbia", "The North Face"},
	"Toys":           {"Lego", "Hasbro", "Mattel", "Fisher-Price", "Disney", "Nerf", "Barbie", "Hot Wheels", "Play-Doh", "Nintendo"},
}

var Locations = []string{
	"New York", "Los Angeles", "Chicago", "Houston", "Phoenix", "Philadelphia",
	"San Antonio", "San Diego", "Dallas", "San Jose", "Austin", "Seattle",
	"Boston", "Denver", "Atlanta",
}

var onlinePayments = []string{"Credit Card", "PayPal", "Apple Pay", "Google Pay"}

var storePayments = []string{"Cash", "Credit Card", "Debit Card", "Gift Card"}
