package entity

// LoadErrorPrefix открывает текст ошибки, который видит пользователь.
const LoadErrorPrefix = "Error loading image"

// DetectionOutcome хранит результат одного запроса: либо размеченное изображение,
// либо ошибка загрузки входа. Ошибки модели сюда не попадают.
type DetectionOutcome struct {
	Annotated  *RGB
	Detections int
	Failure    error // *FetchError или *DecodeError
}

// Succeeded создаёт успешный результат.
func Succeeded(result *DetectionResult) *DetectionOutcome {
	return &DetectionOutcome{
		Annotated:  result.Annotated,
		Detections: len(result.Detections),
	}
}

// Failed создаёт результат с ошибкой загрузки.
func Failed(err error) *DetectionOutcome {
	return &DetectionOutcome{Failure: err}
}

// OK сообщает, что изображение получено.
func (o *DetectionOutcome) OK() bool {
	return o.Failure == nil && o.Annotated != nil
}

// Message возвращает текст для пользователя при ошибке, иначе пустую строку.
func (o *DetectionOutcome) Message() string {
	if o.Failure == nil {
		return ""
	}
	return LoadErrorPrefix + ": " + o.Failure.Error()
}
