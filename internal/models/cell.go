package models

// Статусы парковочной ячейки.
const (
	CellAvailable = "available"
	CellOccupied  = "occupied"
)

// Cell представляет физическое парковочное место.
// Поле Plate пустое, пока ячейка свободна, и содержит номер
// занявшего её транспортного средства, пока ячейка занята.
// Статус меняется только движком въездов/выездов, никогда напрямую.
type Cell struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Plate  string `json:"plate"`
}

// DummyCell используется для приёма данных новой ячейки из JSON-запроса.
type DummyCell struct {
	Type string `json:"type" validate:"required,oneof=car motorcycle bicycle"`
}
