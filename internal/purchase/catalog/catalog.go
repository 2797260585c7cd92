// Package catalog holds the purchasable service offerings and their
// pricing tiers. The built-in catalog mirrors the production offering;
// deployments can replace it wholesale with a YAML file.
package catalog

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	purchase "looptrust-ledger/internal/purchase/domain"
)

// Tier is one pricing level of a service.
type Tier struct {
	Price    string   `yaml:"price"`
	Features []string `yaml:"features"`
}

// Service is one purchasable offering.
type Service struct {
	ID          int                        `yaml:"id"`
	Title       string                     `yaml:"title"`
	Description string                     `yaml:"description"`
	Benefits    string                     `yaml:"benefits"`
	Pricing     map[purchase.PlanType]Tier `yaml:"pricing"`
}

// Catalog is an ordered list of services keyed by id.
type Catalog struct {
	services []Service
	byID     map[int]Service
}

// Load returns the built-in catalog, replaced by the YAML file at
// path when path is non-empty.
func Load(path string) (*Catalog, error) {
	services := defaultServices()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		var loaded []Service
		if err := yaml.Unmarshal(data, &loaded); err != nil {
			return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
		}
		if len(loaded) > 0 {
			services = loaded
		}
	}

	byID := make(map[int]Service, len(services))
	for _, svc := range services {
		if svc.ID <= 0 {
			return nil, fmt.Errorf("catalog: service %q has invalid id %d", svc.Title, svc.ID)
		}
		if _, dup := byID[svc.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate service id %d", svc.ID)
		}
		byID[svc.ID] = svc
	}
	return &Catalog{services: services, byID: byID}, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Load("")
	if err != nil {
		panic(err)
	}
	return c
}

// Services returns all offerings in catalog order.
func (c *Catalog) Services() []Service {
	out := make([]Service, len(c.services))
	copy(out, c.services)
	return out
}

// Service looks up an offering by id.
func (c *Catalog) Service(id int) (Service, bool) {
	svc, ok := c.byID[id]
	return svc, ok
}

// ethAmount extracts the leading ETH amount from a price label such
// as "0.03 ETH + 1%".
var ethAmount = regexp.MustCompile(`\d+\.\d+`)

// Fallback amounts in wei when a price label carries no parsable
// ETH figure.
var fallbackWei = map[purchase.PlanType]string{
	purchase.PlanBasic:    "10000000000000000",
	purchase.PlanStandard: "50000000000000000",
	purchase.PlanPremium:  "150000000000000000",
}

// PriceWei derives the settlement amount in wei for a service tier.
func (c *Catalog) PriceWei(serviceID int, plan purchase.PlanType) (string, error) {
	svc, ok := c.byID[serviceID]
	if !ok {
		return "", fmt.Errorf("%w: service id %d", purchase.ErrUnknownService, serviceID)
	}
	tier, ok := svc.Pricing[plan]
	if !ok {
		return "", fmt.Errorf("%w: %q", purchase.ErrUnknownPlan, plan)
	}
	if match := ethAmount.FindString(tier.Price); match != "" {
		eth, err := strconv.ParseFloat(match, 64)
		if err == nil {
			return strconv.FormatFloat(eth*1e18, 'f', 0, 64), nil
		}
	}
	if wei, ok := fallbackWei[plan]; ok {
		return wei, nil
	}
	return "0", nil
}

func defaultServices() []Service {
	return []Service{
		{
			ID:          1,
			Title:       "Tokenized Supply Chain Goods",
			Description: "Create tokenized representations of physical inventory and goods, enabling easier tracking, trading, and financing on the blockchain.",
			Benefits:    "Enhanced tracking, simplified trading, transparent ownership, and improved financing options with minimal entry costs.",
			Pricing: map[purchase.PlanType]Tier{
				purchase.PlanBasic:    {Price: "0.01 ETH", Features: []string{"Up to 5 tokenized items", "Basic tracking", "30-day support"}},
				purchase.PlanStandard: {Price: "0.05 ETH", Features: []string{"Up to 50 tokenized items", "Advanced tracking", "90-day support", "Trading enabled"}},
				purchase.PlanPremium:  {Price: "0.15 ETH", Features: []string{"Unlimited tokenized items", "Real-time tracking", "Financing options", "Priority support"}},
			},
		},
		{
			ID:          2,
			Title:       "Automated Supply Chain Smart Contracts",
			Description: "Custom smart contracts that automate critical aspects of supply chain operations, including order processing, payment execution, and delivery tracking.",
			Benefits:    "Reduced operational costs, minimized human error, enhanced efficiency, and fully customizable to specific business needs.",
			Pricing: map[purchase.PlanType]Tier{
				purchase.PlanBasic:    {Price: "0.02 ETH", Features: []string{"Basic order processing", "Single payment method", "Manual tracking"}},
				purchase.PlanStandard: {Price: "0.08 ETH", Features: []string{"Advanced order processing", "Multiple payment options", "Automated tracking"}},
				purchase.PlanPremium:  {Price: "0.25 ETH", Features: []string{"Custom workflow automation", "Multi-signature payments", "Real-time tracking"}},
			},
		},
		{
			ID:          3,
			Title:       "Decentralized Marketplace",
			Description: "A blockchain-powered platform where businesses can list and access supply chain-related services including logistics, warehousing, and materials sourcing.",
			Benefits:    "Direct business connections, reduced intermediary costs, transparent service ratings, and secure payment processing.",
			Pricing: map[purchase.PlanType]Tier{
				purchase.PlanBasic:    {Price: "0.01 ETH/month", Features: []string{"Basic listing (up to 5 items)", "Standard visibility", "Basic analytics"}},
				purchase.PlanStandard: {Price: "0.05 ETH/month", Features: []string{"Enhanced listing (up to 25 items)", "Priority placement", "Detailed analytics"}},
				purchase.PlanPremium:  {Price: "0.15 ETH/month", Features: []string{"Unlimited listings", "Featured placement", "Advanced analytics", "Custom branding"}},
			},
		},
		{
			ID:          4,
			Title:       "Supply Chain Data Marketplaces",
			Description: "Secure platform for companies to sell and purchase supply chain data, including trends, demand forecasts, and supplier performance metrics.",
			Benefits:    "Monetization of existing data, access to valuable industry insights, and enhanced decision-making capabilities.",
			Pricing: map[purchase.PlanType]Tier{
				purchase.PlanBasic:    {Price: "0.02 ETH/month", Features: []string{"Basic data access", "Monthly updates", "Standard formats"}},
				purchase.PlanStandard: {Price: "0.10 ETH/month", Features: []string{"Premium data access", "Weekly updates", "Multiple formats", "Basic API access"}},
				purchase.PlanPremium:  {Price: "0.30 ETH/month", Features: []string{"Full data library access", "Real-time updates", "Custom formats", "Full API integration"}},
			},
		},
		{
			ID:          5,
			Title:       "Supply Chain Insurance",
			Description: "Blockchain-based insurance solutions where businesses can insure goods or shipments with automatic claims processing when predefined conditions are met.",
			Benefits:    "Streamlined claims process, reduced premiums, transparent terms, and customizable coverage options.",
			Pricing: map[purchase.PlanType]Tier{
				purchase.PlanBasic:    {Price: "0.01 ETH + 0.5%", Features: []string{"Basic coverage", "48-hour claims processing", "Standard conditions"}},
				purchase.PlanStandard: {Price: "0.03 ETH + 1%", Features: []string{"Enhanced coverage", "24-hour claims processing", "Customizable conditions"}},
				purchase.PlanPremium:  {Price: "0.05 ETH + 2%", Features: []string{"Comprehensive coverage", "Instant claims processing", "Fully customizable conditions"}},
			},
		},
		{
			ID:          6,
			Title:       "Cross-Border Payment Solutions",
			Description: "Low-cost international payment solutions leveraging blockchain for faster, cheaper, and more secure global transactions for supply chain businesses.",
			Benefits:    "Reduced fees, faster settlement times, eliminated currency conversion costs, and enhanced security.",
			Pricing: map[purchase.PlanType]Tier{
				purchase.PlanBasic:    {Price: "0.01 ETH + 0.5%", Features: []string{"Basic currency support", "3-day settlement", "Standard security"}},
				purchase.PlanStandard: {Price: "0.02 ETH + 0.75%", Features: []string{"Multi-currency support", "1-day settlement", "Enhanced security"}},
				purchase.PlanPremium:  {Price: "0.05 ETH + 1%", Features: []string{"All currencies supported", "Instant settlement", "Advanced security and reporting"}},
			},
		},
		{
			ID:          7,
			Title:       "Invoice Financing",
			Description: "Enable businesses to tokenize and finance their outstanding invoices on the blockchain, improving cash flow without traditional lending constraints.",
			Benefits:    "Improved cash flow, reduced financing costs, faster funding, and expanded access to capital for growing businesses.",
			Pricing: map[purchase.PlanType]Tier{
				purchase.PlanBasic:    {Price: "0.02 ETH + 5% APR", Features: []string{"Up to $10,000 financing", "7-day processing", "30-90 day terms"}},
				purchase.PlanStandard: {Price: "0.05 ETH + 4% APR", Features: []string{"Up to $50,000 financing", "3-day processing", "Flexible terms"}},
				purchase.PlanPremium:  {Price: "0.10 ETH + 3% APR", Features: []string{"Unlimited financing", "Same-day processing", "Custom terms"}},
			},
		},
		{
			ID:          8,
			Title:       "Automated Supply Chain Financing Pools",
			Description: "Decentralized financing pools that automatically match lenders with supply chain businesses seeking funding, all managed through smart contracts.",
			Benefits:    "Competitive interest rates, automated matching process, diversified risk, and transparent lending terms.",
			Pricing: map[purchase.PlanType]Tier{
				purchase.PlanBasic:    {Price: "0.01 ETH + 1% fee", Features: []string{"Access to basic pool", "Standard matching", "Fixed terms"}},
				purchase.PlanStandard: {Price: "0.03 ETH + 0.75% fee", Features: []string{"Access to enhanced pools", "Priority matching", "Flexible terms"}},
				purchase.PlanPremium:  {Price: "0.08 ETH + 0.5% fee", Features: []string{"Access to all pools", "Premium matching", "Custom terms", "Preferential rates"}},
			},
		},
	}
}
