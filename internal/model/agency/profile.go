package agency

// Service describes one offering shown on the landing page and quoted in the
// assistant's system prompt.
type Service struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Highlights  []string `json:"highlights,omitempty" yaml:"highlights,omitempty"`
}

// Channels lists the ways a visitor can reach the agency directly.
type Channels struct {
	Phone    string `json:"phone" yaml:"phone"`
	Email    string `json:"email" yaml:"email"`
	WhatsApp string `json:"whatsapp" yaml:"whatsapp"`
	Facebook string `json:"facebook" yaml:"facebook"`
}

// Profile captures the agency attributes exposed to the frontend and used to
// prime the chat assistant.
type Profile struct {
	Name          string    `json:"name" yaml:"name"`
	AssistantName string    `json:"assistantName" yaml:"assistantName"`
	Greeting      string    `json:"greeting" yaml:"greeting"`
	Tone          []string  `json:"tone" yaml:"tone"`
	Services      []Service `json:"services" yaml:"services"`
	Contact       Channels  `json:"contact" yaml:"contact"`
}

// ServiceTitles returns the titles of the offered services in display order.
func (p Profile) ServiceTitles() []string {
	titles := make([]string, 0, len(p.Services))
	for _, svc := range p.Services {
		titles = append(titles, svc.Title)
	}
	return titles
}

// Seed provides the profile the site ships with.
func Seed() Profile {
	return Profile{
		Name:          "Metamorphosis Agency",
		AssistantName: "Morph",
		Greeting:      "Hi there! I'm Morph, your AI assistant. How can I help you transform your business today?",
		Tone:          []string{"Professional", "innovative", "enthusiastic", "helpful"},
		Services: []Service{
			{
				Title:       "Web Design",
				Description: "We craft visually stunning, mobile-responsive websites designed to convert visitors into loyal customers. Our designs align perfectly with your brand identity.",
				Highlights:  []string{"Creating modern, responsive, and high-converting websites."},
			},
			{
				Title:       "Automation Workflow",
				Description: "Eliminate repetitive tasks. We build seamless automation systems that connect your apps, save countless hours, and reduce human error significantly.",
				Highlights:  []string{"Streamlining business processes to save time and reduce errors."},
			},
			{
				Title:       "Agents Creation",
				Description: "Step into the future with custom AI agents. From customer support chatbots to intelligent sales assistants, we build digital workers that never sleep.",
				Highlights:  []string{"Building custom AI agents to handle customer support, lead gen, and more."},
			},
		},
		Contact: Channels{
			Phone:    "+264813879841",
			Email:    "egabrella231@gmail.com",
			WhatsApp: "https://wa.me/264813879841",
			Facebook: "https://www.facebook.com/metamorphosis.167777/",
		},
	}
}
