package domain

import "strconv"

var topicNames = map[int]string{
	1: "Engaging Your Audience",
	2: "Delivery Techniques",
	3: "Visual Aids & Body",
	4: "Handling Questions",
}

// TopicName returns the display name of a topic, or "Topic N" when unnamed.
func TopicName(topic int) string {
	if name, ok := topicNames[topic]; ok {
		return name
	}
	return "Topic " + strconv.Itoa(topic)
}
