// Package seed builds the deterministic sales dataset used for demos and
// tests.
package seed

import (
	"math"
	"math/rand"
	"time"
)

const (
	DefaultSeed      = 42
	DefaultCustomers = 500
	DefaultOrders    = 1500
	productsPerGroup = 17
	maxItemsPerOrder = 5
	maxQuantity      = 10
)

var (
	regions  = []string{"North", "South", "East", "West"}
	segments = []string{"Consumer", "Corporate", "Home Office"}

	firstNames = []string{
		"James", "Mary", "Robert", "Patricia", "John", "Jennifer", "Michael", "Linda", "David", "Elizabeth",
		"William", "Barbara", "Richard", "Susan", "Joseph", "Jessica", "Thomas", "Sarah", "Charles", "Karen",
		"Daniel", "Nancy", "Matthew", "Lisa", "Anthony", "Betty", "Mark", "Sandra", "Steven", "Ashley",
		"Andrew", "Kimberly", "Joshua", "Emily", "Kevin", "Donna", "Brian", "Michelle", "Amir", "Priya",
		"Wei", "Yuki", "Carlos", "Sofia", "Kwame", "Ingrid", "Mateo", "Aisha", "Lars", "Noor",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
		"Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
		"Lee", "Perez", "Thompson", "White", "Harris", "Sanchez", "Clark", "Ramirez", "Lewis", "Robinson",
		"Walker", "Young", "Allen", "King", "Wright", "Scott", "Torres", "Nguyen", "Hill", "Flores",
		"Green", "Adams", "Nelson", "Baker", "Hall", "Rivera", "Campbell", "Mitchell", "Carter", "Roberts",
	}
)

type category struct {
	name     string
	minPrice float64
	maxPrice float64
	items    []string
}

var catalog = []category{
	{
		name: "Technology", minPrice: 29.99, maxPrice: 1999.99,
		items: []string{
			"Laptop", "Desktop Monitor", "Wireless Mouse", "Mechanical Keyboard", "USB-C Hub",
			"External SSD", "Webcam", "Bluetooth Headset", "Tablet", "Smartphone",
			"Smartwatch", "Router", "Printer", "Graphics Card", "RAM Module",
			"Power Bank", "USB Flash Drive",
		},
	},
	{
		name: "Furniture", minPrice: 49.99, maxPrice: 899.99,
		items: []string{
			"Standing Desk", "Ergonomic Chair", "Bookshelf", "Filing Cabinet", "Conference Table",
			"Desk Lamp", "Monitor Stand", "Whiteboard", "Office Sofa", "Storage Unit",
			"Side Table", "Coat Rack", "Room Divider", "Footrest",
		},
	},
	{
		name: "Office Supplies", minPrice: 2.99, maxPrice: 149.99,
		items: []string{
			"Notebook Set", "Pen Pack", "Stapler", "Paper Ream", "Binder Clips",
			"Sticky Notes", "Highlighter Set", "Tape Dispenser", "Scissors", "Envelope Pack",
			"Label Maker", "Paper Shredder", "Calculator", "Desk Organizer",
			"Whiteboard Markers", "Correction Tape", "Glue Stick", "Rubber Bands", "Push Pins",
		},
	},
}

// Products nobody ever orders. Questions about unsold stock rely on them.
var neverOrdered = []Product{
	{Name: "Discontinued Fax Machine", Category: "Technology", Price: 299.99},
	{Name: "Antique Typewriter", Category: "Office Supplies", Price: 499.99},
	{Name: "VR Meeting Pod", Category: "Furniture", Price: 3499.99},
}

type Customer struct {
	ID      int64  `db:"id" parquet:"id"`
	Name    string `db:"name" parquet:"name"`
	Region  string `db:"region" parquet:"region"`
	Segment string `db:"segment" parquet:"segment"`
}

type Product struct {
	ID       int64   `db:"id" parquet:"id"`
	Name     string  `db:"name" parquet:"name"`
	Category string  `db:"category" parquet:"category"`
	Price    float64 `db:"price" parquet:"price"`
}

type Order struct {
	ID         int64   `db:"id" parquet:"id"`
	CustomerID int64   `db:"customer_id" parquet:"customer_id"`
	Amount     float64 `db:"amount" parquet:"amount"`
	OrderDate  string  `db:"order_date" parquet:"order_date"`
}

type OrderItem struct {
	OrderID   int64 `db:"order_id" parquet:"order_id"`
	ProductID int64 `db:"product_id" parquet:"product_id"`
	Quantity  int64 `db:"quantity" parquet:"quantity"`
}

type Dataset struct {
	Customers  []Customer
	Products   []Product
	Orders     []Order
	OrderItems []OrderItem
}

// Counts returns row counts keyed by table name.
func (d Dataset) Counts() map[string]int {
	return map[string]int{
		"customers":   len(d.Customers),
		"products":    len(d.Products),
		"orders":      len(d.Orders),
		"order_items": len(d.OrderItems),
	}
}

type Options struct {
	Seed      int64
	Customers int
	Orders    int
}

func DefaultOptions() Options {
	return Options{Seed: DefaultSeed, Customers: DefaultCustomers, Orders: DefaultOrders}
}

type Generator struct {
	rnd  *rand.Rand
	opts Options
}

func NewGenerator(opts Options) *Generator {
	if opts.Customers <= 0 {
		opts.Customers = DefaultCustomers
	}
	if opts.Orders <= 0 {
		opts.Orders = DefaultOrders
	}
	return &Generator{rnd: rand.New(rand.NewSource(opts.Seed)), opts: opts}
}

// Generate builds the dataset. The same options always produce the same rows.
func (g *Generator) Generate() Dataset {
	customers := g.customers()
	orderable := g.products()

	products := append([]Product(nil), orderable...)
	nextID := int64(len(orderable)) + 1
	for _, product := range neverOrdered {
		product.ID = nextID
		nextID++
		products = append(products, product)
	}

	orders, items := g.orders(orderable)
	return Dataset{Customers: customers, Products: products, Orders: orders, OrderItems: items}
}

func (g *Generator) customers() []Customer {
	out := make([]Customer, 0, g.opts.Customers)
	for i := 1; i <= g.opts.Customers; i++ {
		out = append(out, Customer{
			ID:      int64(i),
			Name:    pickOne(g.rnd, firstNames) + " " + pickOne(g.rnd, lastNames),
			Region:  pickOne(g.rnd, regions),
			Segment: pickOne(g.rnd, segments),
		})
	}
	return out
}

func (g *Generator) products() []Product {
	out := make([]Product, 0, len(catalog)*productsPerGroup)
	id := int64(1)
	for _, group := range catalog {
		count := min(len(group.items), productsPerGroup)
		for _, index := range g.rnd.Perm(len(group.items))[:count] {
			out = append(out, Product{
				ID:       id,
				Name:     group.items[index],
				Category: group.name,
				Price:    round2(group.minPrice + g.rnd.Float64()*(group.maxPrice-group.minPrice)),
			})
			id++
		}
	}
	return out
}

func (g *Generator) orders(orderable []Product) ([]Order, []OrderItem) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC).Sub(start).Hours()/24) + 1

	orders := make([]Order, 0, g.opts.Orders)
	items := make([]OrderItem, 0, g.opts.Orders*3)
	for id := int64(1); id <= int64(g.opts.Orders); id++ {
		customerID := int64(g.rnd.Intn(g.opts.Customers) + 1)
		orderDate := start.AddDate(0, 0, g.rnd.Intn(days))

		lines := min(g.rnd.Intn(maxItemsPerOrder)+1, len(orderable))
		total := 0.0
		for _, index := range g.rnd.Perm(len(orderable))[:lines] {
			product := orderable[index]
			quantity := int64(g.rnd.Intn(maxQuantity) + 1)
			total += product.Price * float64(quantity)
			items = append(items, OrderItem{OrderID: id, ProductID: product.ID, Quantity: quantity})
		}

		orders = append(orders, Order{
			ID:         id,
			CustomerID: customerID,
			Amount:     round2(total),
			OrderDate:  orderDate.Format("2006-01-02"),
		})
	}
	return orders, items
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
