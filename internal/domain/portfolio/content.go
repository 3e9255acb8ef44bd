package portfolio

// SkillColumns is how many columns the skills grid uses on wide screens.
const SkillColumns = 3

// Default returns the site content. Each call returns fresh slices.
func Default() Content {
	return Content{
		Profile: Profile{
			Name:        "Artyom Chshyogolev",
			Headline:    "Software Engineer",
			Tagline:     "Building innovative, efficient, and user-friendly solutions for the digital future.",
			Title:       "Artyom Chshyogolev's Portfolio | Software developer",
			SiteName:    "artchsh.kz",
			ImageURL:    "https://artchsh.kz/og.png",
			GitHubURL:   "https://github.com/artchsh",
			Locale:      "en_US",
			ContactHint: "Connect, collaborate, or hire me for your next project.",
		},
		Social: []Link{
			{Key: "linkedin", Label: "LinkedIn Profile", URL: "https://linkedin.com/in/artchsh", External: true},
			{Key: "github", Label: "GitHub Profile", URL: "https://github.com/artchsh", External: true},
			{Key: "email", Label: "Send an Email", URL: "mailto:artyom.chshyogolev@gmail.com"},
			{Key: "telegram", Label: "Telegram Profile", URL: "https://t.me/artchsh", External: true},
			{Key: "twitter", Label: "Twitter Profile", URL: "https://twitter.com/artchsh", External: true},
			{Key: "instagram", Label: "Instagram Profile", URL: "", External: true},
		},
		Freelance: []Link{
			{Key: "fiverr", Label: "Fiverr", URL: "https://www.fiverr.com/artchsh", External: true},
			{Key: "upwork", Label: "Upwork", URL: "https://www.upwork.com/freelancers/~01174b9aa4f8d1efb2", External: true},
		},
		Categories: []Category{
			{Key: "languages", Title: "Languages", Skills: []Skill{
				{Name: "JavaScript", Icon: "js"},
				{Name: "TypeScript", Icon: "ts"},
				{Name: "Python", Icon: "python"},
				{Name: "C (basics)", Icon: "code"},
			}},
			{Key: "libraries", Title: "Frameworks & Libraries", Skills: []Skill{
				{Name: "React", Icon: "react"},
				{Name: "Next.js", Icon: "nextjs"},
				{Name: "Flask", Icon: "flask"},
				{Name: "Socket.IO", Icon: "socketio"},
				{Name: "Tailwind CSS", Icon: "tailwind"},
				{Name: "asyncio", Icon: "sync"},
				{Name: "python-telegram-bot", Icon: "telegram"},
			}},
			{Key: "ai", Title: "AI & Machine Learning", Skills: []Skill{
				{Name: "ChatGPT", Icon: "openai"},
				{Name: "Claude AI", Icon: "claude"},
				{Name: "Ollama", Icon: "ollama"},
			}},
			{Key: "devops", Title: "DevOps & Cloud", Skills: []Skill{
				{Name: "Docker", Icon: "docker"},
				{Name: "Github Actions", Icon: "gha"},
				{Name: "DigitalOcean", Icon: "digitalocean"},
				{Name: "ps.kz", Icon: "server"},
				{Name: "Nginx", Icon: "nginx"},
				{Name: "CI/CD Pipelines", Icon: "pipeline"},
			}},
			{Key: "database", Title: "Databases", Skills: []Skill{
				{Name: "MySQL", Icon: "mysql"},
				{Name: "PostgreSQL", Icon: "postgres"},
			}},
			{Key: "tools", Title: "Developer Tools", Skills: []Skill{
				{Name: "Github", Icon: "github"},
				{Name: "VS Code", Icon: "vscode"},
				{Name: "Figma / Penpot", Icon: "figma"},
				{Name: "Postman", Icon: "postman"},
				{Name: "Notion / Obsidian", Icon: "notion"},
			}},
			{Key: "softskills", Title: "Soft Skills", Skills: []Skill{
				{Name: "Team Leadership", Icon: "team"},
				{Name: "Communication", Icon: "chat"},
				{Name: "Peer Support", Icon: "chat"},
				{Name: "Creative Thinking", Icon: "brush"},
				{Name: "Multilingual", Icon: "language"},
			}},
		},
		Projects: []Project{
			{
				Title:       "Portfolio Website",
				Description: "This very website! Built with Next.js, Tailwind CSS, and Shadcn UI, showcasing skills and projects.",
				Tags:        []string{"Next.js", "React", "TypeScript", "Tailwind CSS", "Shadcn UI"},
			},
			{
				Title:       "AllyMap",
				Description: "PWA for LGTBIQIA+ inclusive places in Almaty, Kazakhstan",
				Tags:        []string{"Typescript", "React", "TailwindCSS", "Material UI", "Vite", "PWA", "MongoDB"},
				Link:        "https://github.com/artchsh?tab=repositories&q=AllyMap",
			},
			{
				Title:       "PETE",
				Description: "PWA for local Shelters, to have easy access to pets in need of a home",
				Tags:        []string{"Typescript", "React", "TailwindCSS", "Vite", "PWA", "MongoDB"},
				Link:        "https://github.com/pete-kz",
			},
			{
				Title:       "JarqynDos - Telegram bot",
				Description: "Telegram bot for social project of peer 2 peer metal health support for students called 'JARQYN' ",
				Tags:        []string{"Python", "Docker", "DigitalOcean", "python-telegram-bot", "JSONDB"},
				Link:        "https://github.com/artchsh/jarqyndos",
			},
			{
				Title:       "Telegram Bot Automation",
				Description: "Developed several utility bots for Telegram using python-telegram-bot for automation tasks.",
				Tags:        []string{"Python", "Telegram API", "Automation"},
			},
		},
	}
}
