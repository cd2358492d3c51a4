package model

type DashboardStats struct {
	TotalHomeAreas      int `json:"total_home_areas"`
	OutOfStockItems     int `json:"out_of_stock_items"`
	PendingTasks        int `json:"pending_tasks"`
	ItemsInShoppingList int `json:"items_in_shopping_list"`
	TotalNotes          int `json:"total_notes"`
}
