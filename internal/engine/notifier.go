package engine

// Pushes notifications to the connected clients
type Notifier interface {
	Notify(method string, params interface{})
}

type NotifierFunc func(method string, params interface{})

func (f NotifierFunc) Notify(method string, params interface{}) {
	f(method, params)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, interface{}) {}
