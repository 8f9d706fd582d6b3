package rules

import "github.com/dvloznov/spendscan/internal/domain"

// DefaultVersion identifies the built-in tables.
const DefaultVersion = "2024.1"

// Default returns a fresh copy of the built-in tables.
func Default() *Set {
	return &Set{
		Version:          DefaultVersion,
		Prefixes:         append([]string(nil), defaultPrefixes...),
		AdminWords:       append([]string(nil), defaultAdminWords...),
		Cities:           append([]string(nil), defaultCities...),
		StopWords:        append([]string(nil), defaultStopWords...),
		Abbreviations:    append([]Abbreviation(nil), defaultAbbreviations...),
		IncomeKeywords:   append([]string(nil), defaultIncomeKeywords...),
		TransferKeywords: append([]string(nil), defaultTransferKeywords...),
		CategoryKeywords: append([]CategoryKeyword(nil), defaultCategoryKeywords...),
		Services:         append([]Service(nil), defaultServices...),
		Blacklist:        append([]string(nil), defaultBlacklist...),
		ServiceKinds:     cloneKinds(defaultServiceKinds),
		Fees:             append([]Fee(nil), defaultFees...),
	}
}

func cloneKinds(kinds []ServiceKind) []ServiceKind {
	out := make([]ServiceKind, len(kinds))
	for i, k := range kinds {
		out[i] = ServiceKind{Category: k.Category, Keywords: append([]string(nil), k.Keywords...)}
	}
	return out
}

// Prefixes are regular expressions anchored at the start of the description.
// Longer phrases come first so "POS DEBIT" wins over "POS".
var defaultPrefixes = []string{
	`RECURRING PAYMENT AUTHORIZED ON \d{1,2}/\d{1,2}`,
	`PURCHASE AUTHORIZED ON \d{1,2}/\d{1,2}`,
	`DEBIT CARD PURCHASE`,
	`CHECKCARD \d{4}`,
	`ACH RECURRING`,
	`ACH DEBIT`,
	`POS PURCHASE`,
	`POS DEBIT`,
	`VISA DEBIT`,
	`PENDING`,
	`PAYPAL\s*\*`,
	`SQ\s*\*`,
	`TST\s*\*`,
	`DD\s*\*`,
	`POS`,
}

var defaultAdminWords = []string{
	"LLC", "INC", "CORP", "LTD", "CO", "PURCHASE", "PAYMENT", "MERCHANDISE", "PMT",
}

var defaultCities = []string{
	"new york", "los angeles", "san francisco", "san diego", "san antonio", "san jose",
	"chicago", "houston", "austin", "dallas", "seattle", "boston", "miami", "atlanta",
	"denver", "phoenix", "portland", "las vegas", "nashville", "brooklyn", "philadelphia",
	"minneapolis", "charlotte", "orlando", "detroit",
}

var defaultStopWords = []string{
	"a", "an", "and", "at", "by", "for", "in", "of", "on", "or", "the", "to",
}

// Abbreviations are matched in order against the upper-cased cleaned text.
var defaultAbbreviations = []Abbreviation{
	{Prefix: "AMZN", Name: "Amazon"},
	{Prefix: "AMAZON", Name: "Amazon"},
	{Prefix: "SBUX", Name: "Starbucks"},
	{Prefix: "STARBUCKS", Name: "Starbucks"},
	{Prefix: "HEB", Name: "H-E-B"},
	{Prefix: "H-E-B", Name: "H-E-B"},
	{Prefix: "NETFLIX", Name: "Netflix"},
	{Prefix: "SPOTIFY", Name: "Spotify"},
	{Prefix: "HULU", Name: "Hulu"},
	{Prefix: "DISNEYPLUS", Name: "Disney+"},
	{Prefix: "DISNEY PLUS", Name: "Disney+"},
	{Prefix: "WM SUPERCENTER", Name: "Walmart"},
	{Prefix: "WAL-MART", Name: "Walmart"},
	{Prefix: "WALMART", Name: "Walmart"},
	{Prefix: "TGT", Name: "Target"},
	{Prefix: "MCDONALD", Name: "McDonald's"},
	{Prefix: "CHICK-FIL-A", Name: "Chick-fil-A"},
	{Prefix: "DD DOORDASH", Name: "DoorDash"},
	{Prefix: "DOORDASH", Name: "DoorDash"},
	{Prefix: "UBER EATS", Name: "Uber Eats"},
	{Prefix: "UBER", Name: "Uber"},
	{Prefix: "LYFT", Name: "Lyft"},
	{Prefix: "APPLE", Name: "Apple"},
	{Prefix: "GOOGLE", Name: "Google"},
	{Prefix: "MSFT", Name: "Microsoft"},
	{Prefix: "COSTCO", Name: "Costco"},
	{Prefix: "CVS", Name: "CVS"},
	{Prefix: "7-ELEVEN", Name: "7-Eleven"},
}

var defaultIncomeKeywords = []string{
	"payroll", "direct deposit", "dir dep", "salary", "deposit from", "tax refund",
	"irs treas", "refund", "cashback", "interest paid",
}

var defaultTransferKeywords = []string{
	"transfer", "zelle", "venmo", "cash app", "wire to", "wise",
}

// Category keywords are tested in order; more specific phrases precede the
// brand names they contain ("uber eats" before "uber").
var defaultCategoryKeywords = []CategoryKeyword{
	// Subscriptions.
	{Keyword: "netflix", Category: domain.Subscriptions},
	{Keyword: "spotify", Category: domain.Subscriptions},
	{Keyword: "hulu", Category: domain.Subscriptions},
	{Keyword: "disney+", Category: domain.Subscriptions},
	{Keyword: "disney plus", Category: domain.Subscriptions},
	{Keyword: "hbo max", Category: domain.Subscriptions},
	{Keyword: "youtube premium", Category: domain.Subscriptions},
	{Keyword: "amazon prime", Category: domain.Subscriptions},
	{Keyword: "prime video", Category: domain.Subscriptions},
	{Keyword: "apple music", Category: domain.Subscriptions},
	{Keyword: "icloud", Category: domain.Subscriptions},
	{Keyword: "adobe", Category: domain.Subscriptions},
	{Keyword: "microsoft 365", Category: domain.Subscriptions},
	{Keyword: "dropbox", Category: domain.Subscriptions},
	{Keyword: "openai", Category: domain.Subscriptions},
	{Keyword: "chatgpt", Category: domain.Subscriptions},
	{Keyword: "patreon", Category: domain.Subscriptions},

	// Food and dining.
	{Keyword: "uber eats", Category: domain.FoodDining},
	{Keyword: "doordash", Category: domain.FoodDining},
	{Keyword: "grubhub", Category: domain.FoodDining},
	{Keyword: "starbucks", Category: domain.FoodDining},
	{Keyword: "mcdonald", Category: domain.FoodDining},
	{Keyword: "chipotle", Category: domain.FoodDining},
	{Keyword: "chick-fil-a", Category: domain.FoodDining},
	{Keyword: "dunkin", Category: domain.FoodDining},

	// Groceries.
	{Keyword: "whole foods", Category: domain.Groceries},
	{Keyword: "trader joe", Category: domain.Groceries},
	{Keyword: "h-e-b", Category: domain.Groceries},
	{Keyword: "kroger", Category: domain.Groceries},
	{Keyword: "safeway", Category: domain.Groceries},
	{Keyword: "publix", Category: domain.Groceries},
	{Keyword: "aldi", Category: domain.Groceries},
	{Keyword: "instacart", Category: domain.Groceries},

	// Transportation.
	{Keyword: "uber", Category: domain.Transportation},
	{Keyword: "lyft", Category: domain.Transportation},
	{Keyword: "shell", Category: domain.Transportation},
	{Keyword: "chevron", Category: domain.Transportation},
	{Keyword: "exxon", Category: domain.Transportation},

	// Travel.
	{Keyword: "airbnb", Category: domain.Travel},
	{Keyword: "delta air", Category: domain.Travel},
	{Keyword: "southwest", Category: domain.Travel},
	{Keyword: "marriott", Category: domain.Travel},
	{Keyword: "hilton", Category: domain.Travel},
	{Keyword: "expedia", Category: domain.Travel},
	{Keyword: "booking.com", Category: domain.Travel},

	// Bills and utilities.
	{Keyword: "overdraft", Category: domain.BillsUtilities},
	{Keyword: "service fee", Category: domain.BillsUtilities},
	{Keyword: "atm fee", Category: domain.BillsUtilities},
	{Keyword: "comcast", Category: domain.BillsUtilities},
	{Keyword: "xfinity", Category: domain.BillsUtilities},
	{Keyword: "verizon", Category: domain.BillsUtilities},
	{Keyword: "at&t", Category: domain.BillsUtilities},
	{Keyword: "t-mobile", Category: domain.BillsUtilities},

	// Health and fitness.
	{Keyword: "planet fitness", Category: domain.HealthFitness},
	{Keyword: "peloton", Category: domain.HealthFitness},
	{Keyword: "walgreens", Category: domain.HealthFitness},
	{Keyword: "cvs", Category: domain.HealthFitness},

	// Entertainment.
	{Keyword: "steam", Category: domain.Entertainment},
	{Keyword: "playstation", Category: domain.Entertainment},
	{Keyword: "xbox", Category: domain.Entertainment},
	{Keyword: "nintendo", Category: domain.Entertainment},
	{Keyword: "ticketmaster", Category: domain.Entertainment},
	{Keyword: "amc theatres", Category: domain.Entertainment},

	// Shopping.
	{Keyword: "amazon", Category: domain.Shopping},
	{Keyword: "walmart", Category: domain.Shopping},
	{Keyword: "target", Category: domain.Shopping},
	{Keyword: "costco", Category: domain.Shopping},
	{Keyword: "best buy", Category: domain.Shopping},
	{Keyword: "ebay", Category: domain.Shopping},
	{Keyword: "etsy", Category: domain.Shopping},
	{Keyword: "home depot", Category: domain.Shopping},
	{Keyword: "ikea", Category: domain.Shopping},
	{Keyword: "apple", Category: domain.Shopping},

	// Generic words go last so a brand anywhere in the text wins over them
	// ("AMAZON MARKETPLACE" is shopping, not groceries).
	{Keyword: "bar & grill", Category: domain.FoodDining},
	{Keyword: "restaurant", Category: domain.FoodDining},
	{Keyword: "cafe", Category: domain.FoodDining},
	{Keyword: "coffee", Category: domain.FoodDining},
	{Keyword: "pizza", Category: domain.FoodDining},
	{Keyword: "burger", Category: domain.FoodDining},
	{Keyword: "taco", Category: domain.FoodDining},
	{Keyword: "sushi", Category: domain.FoodDining},
	{Keyword: "grill", Category: domain.FoodDining},
	{Keyword: "grocery", Category: domain.Groceries},
	{Keyword: "supermarket", Category: domain.Groceries},
	{Keyword: "market", Category: domain.Groceries},
	{Keyword: "parking", Category: domain.Transportation},
	{Keyword: "transit", Category: domain.Transportation},
	{Keyword: "toll", Category: domain.Transportation},
	{Keyword: "fuel", Category: domain.Transportation},
	{Keyword: "gas station", Category: domain.Transportation},
	{Keyword: "airlines", Category: domain.Travel},
	{Keyword: "hotel", Category: domain.Travel},
	{Keyword: "electric", Category: domain.BillsUtilities},
	{Keyword: "energy", Category: domain.BillsUtilities},
	{Keyword: "water", Category: domain.BillsUtilities},
	{Keyword: "insurance", Category: domain.BillsUtilities},
	{Keyword: "mortgage", Category: domain.BillsUtilities},
	{Keyword: "gym", Category: domain.HealthFitness},
	{Keyword: "fitness", Category: domain.HealthFitness},
	{Keyword: "pharmacy", Category: domain.HealthFitness},
	{Keyword: "dental", Category: domain.HealthFitness},
	{Keyword: "medical", Category: domain.HealthFitness},
	{Keyword: "cinema", Category: domain.Entertainment},
	{Keyword: "concert", Category: domain.Entertainment},
}

// Services is the known-subscription whitelist.
var defaultServices = []Service{
	{Pattern: "netflix", Name: "Netflix", Category: domain.SubStreaming, MinAmount: 6.99},
	{Pattern: "hulu", Name: "Hulu", Category: domain.SubStreaming},
	{Pattern: "disney", Name: "Disney+", Category: domain.SubStreaming},
	{Pattern: "hbo", Name: "Max", Category: domain.SubStreaming},
	{Pattern: "paramount", Name: "Paramount+", Category: domain.SubStreaming},
	{Pattern: "peacock", Name: "Peacock", Category: domain.SubStreaming},
	{Pattern: "prime video", Name: "Prime Video", Category: domain.SubStreaming},
	{Pattern: "youtube", Name: "YouTube Premium", Category: domain.SubStreaming, MinAmount: 7.99},
	{Pattern: "spotify", Name: "Spotify", Category: domain.SubStreaming, MinAmount: 4.99},
	{Pattern: "apple music", Name: "Apple Music", Category: domain.SubStreaming, MinAmount: 4.99},
	{Pattern: "adobe", Name: "Adobe", Category: domain.SubSoftware, MinAmount: 9.99},
	{Pattern: "microsoft", Name: "Microsoft 365", Category: domain.SubSoftware, MinAmount: 5.99},
	{Pattern: "dropbox", Name: "Dropbox", Category: domain.SubSoftware},
	{Pattern: "icloud", Name: "iCloud+", Category: domain.SubSoftware},
	{Pattern: "google one", Name: "Google One", Category: domain.SubSoftware},
	{Pattern: "notion", Name: "Notion", Category: domain.SubSoftware},
	{Pattern: "openai", Name: "ChatGPT", Category: domain.SubSoftware},
	{Pattern: "chatgpt", Name: "ChatGPT", Category: domain.SubSoftware},
	{Pattern: "github", Name: "GitHub", Category: domain.SubSoftware},
	{Pattern: "planet fitness", Name: "Planet Fitness", Category: domain.SubFitness},
	{Pattern: "peloton", Name: "Peloton", Category: domain.SubFitness},
	{Pattern: "equinox", Name: "Equinox", Category: domain.SubFitness},
	{Pattern: "classpass", Name: "ClassPass", Category: domain.SubFitness},
	{Pattern: "new york times", Name: "The New York Times", Category: domain.SubNews},
	{Pattern: "nytimes", Name: "The New York Times", Category: domain.SubNews},
	{Pattern: "wsj", Name: "The Wall Street Journal", Category: domain.SubNews},
	{Pattern: "washington post", Name: "The Washington Post", Category: domain.SubNews},
	{Pattern: "substack", Name: "Substack", Category: domain.SubNews},
	{Pattern: "xbox", Name: "Xbox Game Pass", Category: domain.SubGaming, MinAmount: 9.99},
	{Pattern: "playstation", Name: "PlayStation Plus", Category: domain.SubGaming, MinAmount: 9.99},
	{Pattern: "nintendo", Name: "Nintendo Switch Online", Category: domain.SubGaming, MinAmount: 3.99},
	{Pattern: "patreon", Name: "Patreon", Category: domain.SubOther},
}

// Blacklist holds retail, food-delivery, travel and utility merchants that
// repeat often without being subscriptions.
var defaultBlacklist = []string{
	"amazon", "walmart", "target", "costco", "whole foods", "h-e-b", "kroger",
	"uber", "lyft", "doordash", "grubhub", "instacart", "starbucks", "mcdonald",
	"shell", "chevron", "exxon", "airbnb", "delta", "southwest", "marriott", "hilton",
	"electric", "water", "comcast", "xfinity", "verizon", "at&t", "t-mobile",
}

var defaultServiceKinds = []ServiceKind{
	{Category: domain.SubStreaming, Keywords: []string{"netflix", "hulu", "disney", "hbo", "max", "prime video", "spotify", "apple music", "youtube", "paramount", "peacock"}},
	{Category: domain.SubSoftware, Keywords: []string{"adobe", "microsoft", "google", "dropbox", "icloud", "notion", "github", "openai", "chatgpt"}},
	{Category: domain.SubFitness, Keywords: []string{"gym", "fitness", "peloton", "planet", "equinox", "classpass"}},
	{Category: domain.SubNews, Keywords: []string{"times", "post", "journal", "news", "substack", "wsj"}},
	{Category: domain.SubGaming, Keywords: []string{"xbox", "playstation", "nintendo", "steam", "game"}},
}

// Fees are tested in order; the first matching keyword decides the leak type.
var defaultFees = []Fee{
	{Keyword: "overdraft", Type: domain.BankFee, Label: "Overdraft Fee"},
	{Keyword: "nsf fee", Type: domain.BankFee, Label: "Insufficient Funds Fee"},
	{Keyword: "insufficient funds", Type: domain.BankFee, Label: "Insufficient Funds Fee"},
	{Keyword: "monthly service fee", Type: domain.BankFee, Label: "Monthly Service Fee"},
	{Keyword: "maintenance fee", Type: domain.BankFee, Label: "Maintenance Fee"},
	{Keyword: "atm fee", Type: domain.ATMFee, Label: "ATM Fee"},
	{Keyword: "atm surcharge", Type: domain.ATMFee, Label: "ATM Fee"},
	{Keyword: "non-network atm", Type: domain.ATMFee, Label: "ATM Fee"},
	{Keyword: "late fee", Type: domain.LateFee, Label: "Late Fee"},
	{Keyword: "late payment", Type: domain.LateFee, Label: "Late Fee"},
	{Keyword: "interest charge", Type: domain.InterestCharge, Label: "Interest Charge"},
	{Keyword: "finance charge", Type: domain.InterestCharge, Label: "Interest Charge"},
	{Keyword: "purchase interest", Type: domain.InterestCharge, Label: "Interest Charge"},
	{Keyword: "foreign transaction", Type: domain.ForeignFee, Label: "Foreign Transaction Fee"},
	{Keyword: "international transaction", Type: domain.ForeignFee, Label: "Foreign Transaction Fee"},
	{Keyword: "convenience fee", Type: domain.ConvenienceFee, Label: "Convenience Fee"},
}
