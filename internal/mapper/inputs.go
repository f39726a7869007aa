package mapper

// Тела запросов create/update в актуальной схеме бэкенда.
// Обратная сторона нормализационной границы: поля именуются по-клиентски,
// JSON-теги несут wire-имена бэкенда, и никто кроме mapper их не знает.

// NewsInput — тело создания/обновления новости.
type NewsInput struct {
	Title       string `json:"titre"`
	Content     string `json:"contenu"`
	PublishedAt string `json:"datePublication,omitempty"`
	CityID      string `json:"villeId"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Author      string `json:"source,omitempty"`
	Category    string `json:"categorie,omitempty"`
}

// EventInput — тело создания/обновления события.
type EventInput struct {
	Title       string `json:"titre"`
	Description string `json:"description,omitempty"`
	Location    string `json:"lieu"`
	Date        string `json:"dateEvenement"`
	Type        string `json:"typeEvenement"`
	CityID      string `json:"villeId"`
}
