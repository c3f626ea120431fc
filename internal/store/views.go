package store

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/printshop-manager/internal/models"
)

// Customer is one entry of the customer roster, keyed by contact number.
type Customer struct {
	ContactNo   string    `json:"contactNo"`
	Name        string    `json:"name"`
	OrderCount  int       `json:"orderCount"`
	IsRegular   bool      `json:"isRegular"`
	LastOrderAt time.Time `json:"lastOrderAt"`
}

// TotalRevenue sums totalAmount over paid orders.
func (s *Store) TotalRevenue() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := decimal.Zero
	for _, o := range s.orders {
		if o.IsPaid() {
			sum = sum.Add(decimal.NewFromFloat(o.TotalAmount))
		}
	}
	return sum.Round(2).InexactFloat64()
}

// PendingOrdersCount counts orders that are not Completed.
func (s *Store) PendingOrdersCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, o := range s.orders {
		if !o.IsCompleted() {
			n++
		}
	}
	return n
}

// OpenTasksCount counts tasks that are not Done.
func (s *Store) OpenTasksCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.tasks {
		if t.IsOpen() {
			n++
		}
	}
	return n
}

func (s *Store) HighPriorityOpenTasksCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.tasks {
		if t.IsOpen() && t.Priority == models.TaskPriorityHigh {
			n++
		}
	}
	return n
}

// ActiveOrders returns the orders that are not Completed, in sheet order.
func (s *Store) ActiveOrders() []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := []models.Order{}
	for _, o := range s.orders {
		if !o.IsCompleted() {
			orders = append(orders, o)
		}
	}
	return orders
}

// OpenOrdersFor returns the not yet completed orders assigned to userID.
func (s *Store) OpenOrdersFor(userID string) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := []models.Order{}
	for _, o := range s.orders {
		if o.AssignedToUserID == userID && !o.IsCompleted() {
			orders = append(orders, o)
		}
	}
	return orders
}

// OpenTasksFor returns the tasks assigned to userID that are not Done.
func (s *Store) OpenTasksFor(userID string) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := []models.Task{}
	for _, t := range s.tasks {
		if t.AssignedToUserID == userID && t.IsOpen() {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// UpcomingTasks returns the open tasks, most urgent priority first and then
// soonest due date.
func (s *Store) UpcomingTasks() []models.Task {
	s.mu.RLock()
	tasks := []models.Task{}
	for _, t := range s.tasks {
		if t.IsOpen() {
			tasks = append(tasks, t)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(tasks, func(i, j int) bool {
		if ri, rj := tasks[i].Priority.Rank(), tasks[j].Priority.Rank(); ri != rj {
			return ri < rj
		}
		return tasks[i].DueDate.Before(tasks[j].DueDate)
	})
	return tasks
}

// Customers groups orders by contact number. The name comes from the last
// order in sheet order. Sorted by order count, then name.
func (s *Store) Customers() []Customer {
	s.mu.RLock()
	index := map[string]int{}
	customers := []Customer{}
	for _, o := range s.orders {
		if o.ContactNo == "" {
			continue
		}
		i, ok := index[o.ContactNo]
		if !ok {
			index[o.ContactNo] = len(customers)
			customers = append(customers, Customer{ContactNo: o.ContactNo})
			i = len(customers) - 1
		}
		c := &customers[i]
		c.Name = o.CustomerName
		c.OrderCount++
		if o.CreatedAt.After(c.LastOrderAt) {
			c.LastOrderAt = o.CreatedAt
		}
	}
	s.mu.RUnlock()

	for i := range customers {
		customers[i].IsRegular = customers[i].OrderCount > 1
	}
	sort.SliceStable(customers, func(i, j int) bool {
		if customers[i].OrderCount != customers[j].OrderCount {
			return customers[i].OrderCount > customers[j].OrderCount
		}
		return customers[i].Name < customers[j].Name
	})
	return customers
}

// NextOrderNo is one more than the highest order number, or 1 when there are no orders.
func (s *Store) NextOrderNo() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := 0
	for _, o := range s.orders {
		if o.OrderNo > max {
			max = o.OrderNo
		}
	}
	return max + 1
}

func (s *Store) UserByID(id string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return models.User{}, false
}

// UserByName matches names case-insensitively.
func (s *Store) UserByName(name string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Name, name) {
			return u, true
		}
	}
	return models.User{}, false
}

func (s *Store) OrderByID(id string) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

func (s *Store) TaskByID(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}
